package service

import (
	"context"

	"dealflow/internal/authz"
	"dealflow/internal/model"
	"dealflow/internal/repository"
	"dealflow/internal/session"
	"dealflow/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatisticsService derives dashboard views from the current roster and
// request collection. Nothing is cached; every call recomputes from scratch.
type StatisticsService interface {
	SystemStats(ctx context.Context) (model.SystemStats, error)
	PerUserStats(ctx context.Context) ([]model.UserStat, error)
	Dashboard(ctx context.Context, sess *session.Session) (*model.DashboardStats, error)
}

type statisticsService struct {
	users    repository.UserRepository
	requests repository.DealRequestRepository
	enforcer *authz.Enforcer
}

func NewStatisticsService(users repository.UserRepository, requests repository.DealRequestRepository, enforcer *authz.Enforcer) StatisticsService {
	return &statisticsService{users: users, requests: requests, enforcer: enforcer}
}

func (s *statisticsService) SystemStats(ctx context.Context) (model.SystemStats, error) {
	submitters, err := s.users.ListByRole(ctx, model.RoleSubmitter)
	if err != nil {
		return model.SystemStats{}, err
	}
	requests, err := s.requests.ListAll(ctx)
	if err != nil {
		return model.SystemStats{}, err
	}
	return systemStats(submitters, requests), nil
}

func (s *statisticsService) PerUserStats(ctx context.Context) ([]model.UserStat, error) {
	submitters, err := s.users.ListByRole(ctx, model.RoleSubmitter)
	if err != nil {
		return nil, err
	}
	requests, err := s.requests.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return perUserStats(submitters, requests), nil
}

func (s *statisticsService) Dashboard(ctx context.Context, sess *session.Session) (*model.DashboardStats, error) {
	if err := authorize(s.enforcer, sess, authz.ResourceStatistics, authz.ActionRead); err != nil {
		return nil, err
	}

	// one snapshot for both views
	submitters, err := s.users.ListByRole(ctx, model.RoleSubmitter)
	if err != nil {
		return nil, err
	}
	requests, err := s.requests.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return &model.DashboardStats{
		SystemStats: systemStats(submitters, requests),
		UserStats:   perUserStats(submitters, requests),
	}, nil
}

func systemStats(submitters []model.User, requests []model.DealRequest) model.SystemStats {
	distinct := make(map[uuid.UUID]struct{}, len(submitters))
	for _, u := range submitters {
		distinct[u.ID] = struct{}{}
	}

	stats := model.SystemStats{TotalUsers: len(distinct)}
	for i := range requests {
		switch {
		case requests[i].Status == model.StatusApproved:
			stats.ActiveDeals++
		case requests[i].AwaitingReview():
			stats.PendingApprovals++
		}
	}
	return stats
}

func perUserStats(submitters []model.User, requests []model.DealRequest) []model.UserStat {
	byOwner := make(map[uuid.UUID][]*model.DealRequest)
	for i := range requests {
		byOwner[requests[i].UserID] = append(byOwner[requests[i].UserID], &requests[i])
	}

	stats := make([]model.UserStat, 0, len(submitters))
	for _, u := range submitters {
		stats = append(stats, userStat(u.ID, u.Username, u.Name, byOwner[u.ID]))
	}
	return stats
}

// userStat counts pending as submitted-and-pending; drafts only add to the budget.
func userStat(id uuid.UUID, username, name string, requests []*model.DealRequest) model.UserStat {
	stat := model.UserStat{
		UserID:   id,
		Username: username,
		Name:     name,
	}
	budgets := make([]decimal.Decimal, 0, len(requests))
	for _, r := range requests {
		budgets = append(budgets, r.AvailableBudget)
		switch {
		case r.Status == model.StatusApproved:
			stat.ApprovedCount++
		case r.Status == model.StatusRejected:
			stat.RejectedCount++
		case r.AwaitingReview():
			stat.PendingCount++
		}
	}
	stat.TotalBudget = money.Sum(budgets...)
	return stat
}
