package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"dealflow/internal/model"
	"dealflow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newRequest(owner uuid.UUID) *model.DealRequest {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.DealRequest{
		ID:                 uuid.New(),
		UserID:             owner,
		DealType:           model.DealTypeRetention,
		Material:           "ZA_000000000000092052",
		CostCenter:         "CC-100",
		ValidityStart:      now,
		ValidityEnd:        now.AddDate(0, 0, 30),
		Discount:           10,
		AvailableBudget:    decimal.NewFromInt(1000),
		TotalEstimatedCost: decimal.RequireFromString("250.50"),
		SearchOutlet:       "ZA_0000303394",
		ClassOfTrade:       "CLASSIC TAVERN",
		SalesArea:          "TZANEEN",
		Status:             model.StatusPending,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestListKeepsAppendOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRequestRepository(NewStore())
	owner := uuid.New()
	other := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		who := owner
		if i%2 == 1 {
			who = other
		}
		req := newRequest(who)
		if err := repo.Create(ctx, req); err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, req.ID)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 records, got %d", len(all))
	}
	for i, r := range all {
		if r.ID != ids[i] {
			t.Fatalf("record %d out of append order", i)
		}
	}

	mine, err := repo.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(mine) != 3 || mine[0].ID != ids[0] || mine[1].ID != ids[2] || mine[2].ID != ids[4] {
		t.Fatalf("unexpected owner listing: %+v", mine)
	}
}

func TestUpdateByID(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRequestRepository(NewStore())
	req := newRequest(uuid.New())
	if err := repo.Create(ctx, req); err != nil {
		t.Fatalf("create: %v", err)
	}

	submitted := true
	v := 1
	updated, err := repo.UpdateByID(ctx, req.ID, model.DealRequestPatch{SubmittedForApproval: &submitted, ExpectedVersion: &v})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.SubmittedForApproval || updated.Version != 2 {
		t.Fatalf("patch not applied: %+v", updated)
	}

	// stale version
	if _, err := repo.UpdateByID(ctx, req.ID, model.DealRequestPatch{SubmittedForApproval: &submitted, ExpectedVersion: &v}); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	if _, err := repo.UpdateByID(ctx, uuid.New(), model.DealRequestPatch{}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWholeCollectionIsRewritten(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewDealRequestRepository(store)
	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, newRequest(uuid.New())); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	var raw []map[string]any
	if err := json.Unmarshal(store.Raw(KeyRequests), &raw); err != nil {
		t.Fatalf("blob is not a serialized list: %v", err)
	}
	if len(raw) != 3 {
		t.Fatalf("expected 3 serialized records, got %d", len(raw))
	}
}

func TestKnownUserUpsertKeepsFirstLogin(t *testing.T) {
	ctx := context.Background()
	repo := NewKnownUserRepository(NewStore())
	id := uuid.New()
	first := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	if err := repo.Upsert(ctx, &model.KnownUser{UserID: id, Username: "john.doe", Role: model.RoleSubmitter, FirstLoginAt: first, LastLoginAt: first}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(ctx, &model.KnownUser{UserID: id, Username: "john.doe", Role: model.RoleSubmitter, FirstLoginAt: later, LastLoginAt: later}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	u, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !u.FirstLoginAt.Equal(first) || !u.LastLoginAt.Equal(later) {
		t.Fatalf("unexpected login times: first=%v last=%v", u.FirstLoginAt, u.LastLoginAt)
	}

	all, _ := repo.List(ctx, "")
	if len(all) != 1 {
		t.Fatalf("expected one known user, got %d", len(all))
	}
}

func TestUserRepositoryKeepsPasswordHash(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())

	if err := repo.Create(ctx, &model.User{Username: "john.doe", Role: model.RoleSubmitter, PasswordHash: "hash"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, &model.User{Username: "john.doe", Role: model.RoleSubmitter}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate username err = %v", err)
	}

	got, err := repo.GetByUsername(ctx, "john.doe")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PasswordHash != "hash" {
		t.Fatalf("password hash = %q, want %q", got.PasswordHash, "hash")
	}
	if got.ID == uuid.Nil {
		t.Fatal("id not assigned")
	}
	if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestListClampsWindow(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRequestRepository(NewStore())
	owner := uuid.New()
	for i := 0; i < 2; i++ {
		if err := repo.Create(ctx, newRequest(owner)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	items, total, err := repo.List(ctx, model.DealRequestFilter{Offset: -1000, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("negative offset: got %d items, total %d", len(items), total)
	}

	items, _, _ = repo.List(ctx, model.DealRequestFilter{Offset: 5, Limit: 10})
	if len(items) != 0 {
		t.Fatalf("offset past end returned %d items", len(items))
	}
}
