package service

import (
	"context"

	"dealflow/internal/authz"
	"dealflow/internal/model"
	"dealflow/internal/repository"
	"dealflow/internal/session"

	"github.com/google/uuid"
)

// ReviewUser is one known submitter as shown on the reviewer's user list.
type ReviewUser struct {
	model.KnownUser
	Stats model.UserStat `json:"stats"`
}

// ReviewService backs the reviewer's per-user pages. It reads the known-user
// list built by logins, not the seeded roster.
type ReviewService interface {
	ListUsers(ctx context.Context, sess *session.Session) ([]ReviewUser, error)
	UserRequests(ctx context.Context, sess *session.Session, userID uuid.UUID) ([]model.DealRequest, error)
}

type reviewService struct {
	knownUsers repository.KnownUserRepository
	requests   repository.DealRequestRepository
	enforcer   *authz.Enforcer
}

func NewReviewService(knownUsers repository.KnownUserRepository, requests repository.DealRequestRepository, enforcer *authz.Enforcer) ReviewService {
	return &reviewService{knownUsers: knownUsers, requests: requests, enforcer: enforcer}
}

func (s *reviewService) ListUsers(ctx context.Context, sess *session.Session) ([]ReviewUser, error) {
	if err := authorize(s.enforcer, sess, authz.ResourceUsers, authz.ActionRead); err != nil {
		return nil, err
	}

	known, err := s.knownUsers.List(ctx, model.RoleSubmitter)
	if err != nil {
		return nil, err
	}
	requests, err := s.requests.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byOwner := make(map[uuid.UUID][]*model.DealRequest)
	for i := range requests {
		byOwner[requests[i].UserID] = append(byOwner[requests[i].UserID], &requests[i])
	}

	users := make([]ReviewUser, 0, len(known))
	for _, ku := range known {
		users = append(users, ReviewUser{
			KnownUser: ku,
			Stats:     userStat(ku.UserID, ku.Username, ku.Name, byOwner[ku.UserID]),
		})
	}
	return users, nil
}

// UserRequests returns the requests the user has submitted, in append order.
// Drafts stay private to their owner.
func (s *reviewService) UserRequests(ctx context.Context, sess *session.Session, userID uuid.UUID) ([]model.DealRequest, error) {
	if err := authorize(s.enforcer, sess, authz.ResourceRequests, authz.ActionReadAll); err != nil {
		return nil, err
	}
	if _, err := s.knownUsers.GetByID(ctx, userID); err != nil {
		return nil, fromRepo(err)
	}
	requests, _, err := s.requests.List(ctx, model.DealRequestFilter{UserID: &userID, SubmittedOnly: true})
	if err != nil {
		return nil, err
	}
	return requests, nil
}
