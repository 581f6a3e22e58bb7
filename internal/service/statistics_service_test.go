package service

import (
	"context"
	"errors"
	"testing"

	"dealflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestPerUserBudgetTotal(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	john := env.login(t, "john.doe")

	for _, budget := range []string{"₹1,000", "500", "abc"} {
		in := validInput()
		in.AvailableBudget = budget
		if _, err := env.deals.Create(ctx, john, in); err != nil {
			t.Fatalf("create %q: %v", budget, err)
		}
	}

	stats, err := env.stats.PerUserStats(ctx)
	if err != nil {
		t.Fatalf("per user stats: %v", err)
	}
	var johnStat *model.UserStat
	for i := range stats {
		if stats[i].Username == "john.doe" {
			johnStat = &stats[i]
		}
	}
	if johnStat == nil {
		t.Fatal("john.doe missing from stats")
	}
	if !johnStat.TotalBudget.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("total budget = %s, want 1500", johnStat.TotalBudget)
	}
}

func TestStatsCounts(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	john := env.login(t, "john.doe")
	jane := env.login(t, "jane.smith")
	mike := env.login(t, "mike.wilson")

	if _, err := env.deals.Create(ctx, john, validInput()); err != nil {
		t.Fatalf("create draft: %v", err)
	}
	p, _ := env.deals.Create(ctx, john, validInput())
	a, _ := env.deals.Create(ctx, john, validInput())
	r, _ := env.deals.Create(ctx, jane, validInput())
	for _, req := range []*model.DealRequest{p, a} {
		if _, err := env.deals.SubmitForApproval(ctx, john, req.ID); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if _, err := env.deals.SubmitForApproval(ctx, jane, r.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := env.deals.Decide(ctx, mike, a.ID, DecisionInput{Outcome: model.StatusApproved}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := env.deals.Decide(ctx, mike, r.ID, DecisionInput{Outcome: model.StatusRejected}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	dash, err := env.stats.Dashboard(ctx, mike)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.TotalUsers != 2 {
		t.Errorf("total users = %d, want 2", dash.TotalUsers)
	}
	if dash.ActiveDeals != 1 {
		t.Errorf("active deals = %d, want 1", dash.ActiveDeals)
	}
	if dash.PendingApprovals != 1 {
		t.Errorf("pending approvals = %d, want 1", dash.PendingApprovals)
	}
	if len(dash.UserStats) != 2 {
		t.Fatalf("user stats = %d rows, want 2", len(dash.UserStats))
	}

	want := map[string][3]int{
		"john.doe":   {1, 1, 0},
		"jane.smith": {0, 0, 1},
	}
	for _, st := range dash.UserStats {
		w := want[st.Username]
		if st.PendingCount != w[0] || st.ApprovedCount != w[1] || st.RejectedCount != w[2] {
			t.Errorf("%s counts = %d/%d/%d, want %v", st.Username, st.PendingCount, st.ApprovedCount, st.RejectedCount, w)
		}
	}

	if _, err := env.stats.Dashboard(ctx, john); !errors.Is(err, ErrForbidden) {
		t.Fatalf("submitter dashboard err = %v", err)
	}
	if _, err := env.stats.Dashboard(ctx, nil); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anonymous dashboard err = %v", err)
	}
}

// Submitter logs in, files and submits one request; the reviewer sees it,
// approves it, and both views reflect the outcome.
func TestEndToEndApproval(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	john := env.login(t, "john.doe")
	req, err := env.deals.Create(ctx, john, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.deals.SubmitForApproval(ctx, john, req.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	mike := env.login(t, "mike.wilson")
	before, err := env.stats.Dashboard(ctx, mike)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	users, err := env.review.ListUsers(ctx, mike)
	if err != nil {
		t.Fatalf("review users: %v", err)
	}
	if len(users) != 1 || users[0].Username != "john.doe" {
		t.Fatalf("review users = %+v", users)
	}
	if users[0].Stats.PendingCount != 1 {
		t.Fatalf("john pending = %d, want 1", users[0].Stats.PendingCount)
	}

	pending, err := env.review.UserRequests(ctx, mike, john.User.ID)
	if err != nil {
		t.Fatalf("user requests: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != req.ID {
		t.Fatalf("pending for john = %+v", pending)
	}

	if _, err := env.deals.Decide(ctx, mike, req.ID, DecisionInput{Outcome: model.StatusApproved, Feedback: "approved for Q1"}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	mine, err := env.deals.ListMine(ctx, john)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].Status != model.StatusApproved || mine[0].Feedback != "approved for Q1" {
		t.Fatalf("john's requests = %+v", mine)
	}

	after, err := env.stats.Dashboard(ctx, mike)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if after.ActiveDeals != before.ActiveDeals+1 {
		t.Fatalf("active deals %d -> %d", before.ActiveDeals, after.ActiveDeals)
	}
	if after.PendingApprovals != before.PendingApprovals-1 {
		t.Fatalf("pending approvals %d -> %d", before.PendingApprovals, after.PendingApprovals)
	}
}

func TestUserStatWithoutRequests(t *testing.T) {
	stat := userStat(uuid.New(), "jane.smith", "Jane Smith", nil)
	if !stat.TotalBudget.Equal(decimal.Zero) {
		t.Fatalf("total budget = %s, want 0", stat.TotalBudget)
	}
	if stat.PendingCount+stat.ApprovedCount+stat.RejectedCount != 0 {
		t.Fatalf("counts = %+v", stat)
	}
}
