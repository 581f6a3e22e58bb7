package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dealflow/internal/audit"
	"dealflow/internal/authz"
	"dealflow/internal/model"
	"dealflow/internal/observability/metrics"
	"dealflow/internal/repository"
	"dealflow/internal/session"
	"dealflow/pkg/money"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

// defaultValidityDays is added to the start date when the end date precedes it.
const defaultValidityDays = 30

var amountMessage = fmt.Sprintf("at most %d integer digits and %d decimal places", money.MaxIntegerDigits, money.MaxScale)

// --- DTOs ---

// CreateDealRequestInput is the request form as submitted. Budget fields are
// free-form strings and only get parsed here at the edge.
type CreateDealRequestInput struct {
	DealType           string `json:"deal_type" validate:"required,deal_type"`
	OtherReason        string `json:"other_reason" validate:"required_if=DealType Other"`
	Material           string `json:"material" validate:"required"`
	CostCenter         string `json:"cost_center" validate:"required"`
	ValidityStart      string `json:"validity_start" validate:"required"`
	ValidityEnd        string `json:"validity_end" validate:"required"`
	Discount           int    `json:"discount"`
	AvailableBudget    string `json:"available_budget" validate:"required"`
	TotalEstimatedCost string `json:"total_estimated_cost" validate:"required"`
	SearchOutlet       string `json:"search_outlet" validate:"required"`
	ClassOfTrade       string `json:"class_of_trade" validate:"required,class_of_trade"`
	SalesArea          string `json:"sales_area" validate:"required"`
}

type DecisionInput struct {
	Outcome  string `json:"outcome" validate:"required,oneof=approved rejected"`
	Feedback string `json:"feedback"`
}

type BulkDecisionInput struct {
	IDs      []uuid.UUID `json:"ids" validate:"required,min=1"`
	Outcome  string      `json:"outcome" validate:"required,oneof=approved rejected"`
	Feedback string      `json:"feedback"`
}

type BulkSubmitInput struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

type RedecisionInput struct {
	Outcome  string `json:"outcome" validate:"required,oneof=approved rejected"`
	Feedback string `json:"feedback"`
	Reason   string `json:"reason" validate:"required"`
}

// BulkResult reports the outcome for one id of a bulk operation.
type BulkResult struct {
	ID     uuid.UUID `json:"id"`
	OK     bool      `json:"ok"`
	Status string    `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// ListFilter narrows the reviewer listing.
type ListFilter struct {
	UserID        *uuid.UUID
	Status        string
	SubmittedOnly bool
	Offset        int
	Limit         int
}

// --- Interface ---

type DealRequestService interface {
	Create(ctx context.Context, sess *session.Session, in CreateDealRequestInput) (*model.DealRequest, error)
	Preview(ctx context.Context, sess *session.Session, in CreateDealRequestInput) (*model.DealRequest, error)
	ListMine(ctx context.Context, sess *session.Session) ([]model.DealRequest, error)
	List(ctx context.Context, sess *session.Session, filter ListFilter) ([]model.DealRequest, int64, error)
	Get(ctx context.Context, sess *session.Session, id uuid.UUID) (*model.DealRequest, error)
	SubmitForApproval(ctx context.Context, sess *session.Session, id uuid.UUID) (*model.DealRequest, error)
	BulkSubmit(ctx context.Context, sess *session.Session, in BulkSubmitInput) ([]BulkResult, error)
	Decide(ctx context.Context, sess *session.Session, id uuid.UUID, in DecisionInput) (*model.DealRequest, error)
	BulkDecide(ctx context.Context, sess *session.Session, in BulkDecisionInput) ([]BulkResult, error)
	Redecide(ctx context.Context, sess *session.Session, id uuid.UUID, in RedecisionInput) (*model.DealRequest, error)
}

type dealRequestService struct {
	repo      repository.DealRequestRepository
	txManager repository.TransactionManager
	enforcer  *authz.Enforcer
	validate  *validator.Validate
	audit     *audit.Logger
	logger    *slog.Logger
	now       func() time.Time
}

func NewDealRequestService(repo repository.DealRequestRepository, txManager repository.TransactionManager, enforcer *authz.Enforcer, auditLog *audit.Logger, logger *slog.Logger) DealRequestService {
	return &dealRequestService{
		repo:      repo,
		txManager: txManager,
		enforcer:  enforcer,
		validate:  newValidator(model.DefaultCatalog),
		audit:     auditLog,
		logger:    logger,
		now:       time.Now,
	}
}

var tracer = otel.Tracer("dealflow/internal/service")

// authorize returns ErrUnauthenticated without a session and ErrForbidden when
// the session's role lacks the permission.
func authorize(enforcer *authz.Enforcer, sess *session.Session, resource, action string) error {
	if sess == nil {
		return ErrUnauthenticated
	}
	ok, err := enforcer.Allowed(sess.User.Role, resource, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *dealRequestService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// normalize validates the form and builds the record it describes.
func (s *dealRequestService) normalize(sess *session.Session, in CreateDealRequestInput) (*model.DealRequest, error) {
	in.DealType = strings.TrimSpace(in.DealType)
	in.OtherReason = strings.TrimSpace(in.OtherReason)

	verr := &ValidationError{}
	if err := s.validate.Struct(in); err != nil {
		converted := toValidationError(err)
		var ve *ValidationError
		if !errors.As(converted, &ve) {
			return nil, converted
		}
		verr.Fields = append(verr.Fields, ve.Fields...)
	}

	start, startErr := parseDate(in.ValidityStart)
	if in.ValidityStart != "" && startErr != nil {
		verr.Fields = append(verr.Fields, FieldError{Field: "validity_start", Message: "invalid date"})
	}
	end, endErr := parseDate(in.ValidityEnd)
	if in.ValidityEnd != "" && endErr != nil {
		verr.Fields = append(verr.Fields, FieldError{Field: "validity_end", Message: "invalid date"})
	}
	budget := money.ParseBudget(in.AvailableBudget)
	if !money.Fits(budget) {
		verr.Fields = append(verr.Fields, FieldError{Field: "available_budget", Message: amountMessage})
	}
	cost := money.ParseBudget(in.TotalEstimatedCost)
	if !money.Fits(cost) {
		verr.Fields = append(verr.Fields, FieldError{Field: "total_estimated_cost", Message: amountMessage})
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	if end.Before(start) {
		end = start.AddDate(0, 0, defaultValidityDays)
	}

	otherReason := ""
	if in.DealType == model.DealTypeOther {
		otherReason = in.OtherReason
	}

	now := s.timestamp()
	return &model.DealRequest{
		ID:                   uuid.New(),
		UserID:               sess.User.ID,
		DealType:             in.DealType,
		OtherReason:          otherReason,
		Material:             strings.TrimSpace(in.Material),
		CostCenter:           strings.TrimSpace(in.CostCenter),
		ValidityStart:        start,
		ValidityEnd:          end,
		Discount:             clampDiscount(in.Discount),
		AvailableBudget:      budget,
		TotalEstimatedCost:   cost,
		SearchOutlet:         strings.TrimSpace(in.SearchOutlet),
		ClassOfTrade:         in.ClassOfTrade,
		SalesArea:            strings.TrimSpace(in.SalesArea),
		Status:               model.StatusPending,
		SubmittedForApproval: false,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

func clampDiscount(d int) int {
	if d < 0 {
		return 0
	}
	if d > 100 {
		return 100
	}
	return d
}

// parseDate accepts a calendar date or an RFC 3339 timestamp and returns it in UTC.
func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().Truncate(time.Microsecond), nil
}

func (s *dealRequestService) Create(ctx context.Context, sess *session.Session, in CreateDealRequestInput) (*model.DealRequest, error) {
	ctx, span := tracer.Start(ctx, "DealRequestService.Create")
	defer span.End()

	if err := authorize(s.enforcer, sess, authz.ResourceRequests, authz.ActionCreate); err != nil {
		return nil, err
	}

	req, err := s.normalize(sess, in)
	if err != nil {
		metrics.ObserveTransition("create", "invalid")
		return nil, err
	}

	if err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, req)
	}); err != nil {
		metrics.ObserveTransition("create", "error")
		return nil, fmt.Errorf("failed to create deal request: %w", err)
	}

	metrics.ObserveTransition("create", "ok")
	s.audit.LogRequest(ctx, sess.User.ID.String(), audit.ActionCreateRequest, req.ID.String(), "success", req.DealType)
	return req, nil
}

// Preview runs the same validation and normalisation as Create without saving.
func (s *dealRequestService) Preview(ctx context.Context, sess *session.Session, in CreateDealRequestInput) (*model.DealRequest, error) {
	if err := authorize(s.enforcer, sess, authz.ResourceRequests, authz.ActionCreate); err != nil {
		return nil, err
	}
	return s.normalize(sess, in)
}

func (s *dealRequestService) ListMine(ctx context.Context, sess *session.Session) ([]model.DealRequest, error) {
	if err := authorize(s.enforcer, sess, authz.ResourceRequests, authz.ActionReadOwn); err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, sess.User.ID)
}

func (s *dealRequestService) List(ctx context.Context, sess *session.Session, filter ListFilter) ([]model.DealRequest, int64, error) {
	if err := authorize(s.enforcer, sess, authz.ResourceRequests, authz.ActionReadAll); err != nil {
		return nil, 0, err
	}
	switch filter.Status {
	case "", model.StatusPending, model.StatusApproved, model.StatusRejected:
	default:
		return nil, 0, &ValidationError{Fields: []FieldError{{Field: "status", Message: "should have value in: pending approved rejected"}}}
	}
	return s.repo.List(ctx, model.DealRequestFilter{
		UserID:        filter.UserID,
		Status:        filter.Status,
		SubmittedOnly: filter.SubmittedOnly,
		Offset:        filter.Offset,
		Limit:         filter.Limit,
	})
}

// Get returns one request to its owner or to a reviewer. Anyone else gets ErrNotFound.
func (s *dealRequestService) Get(ctx context.Context, sess *session.Session, id uuid.UUID) (*model.DealRequest, error) {
	if sess == nil {
		return nil, ErrUnauthenticated
	}
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if req.UserID == sess.User.ID {
		return req, nil
	}
	if err := authorize(s.enforcer, sess, authz.ResourceRequests, authz.ActionReadAll); err != nil {
		return nil, ErrNotFound
	}
	return req, nil
}

// SubmitForApproval moves an owned request from draft to submitted.
func (s *dealRequestService) SubmitForApproval(ctx context.Context, sess *session.Session, id uuid.UUID) (*model.DealRequest, error) {
	ctx, span := tracer.Start(ctx, "DealRequestService.SubmitForApproval")
	defer span.End()

	if err := authorize(s.enforcer, sess, authz.ResourceRequests, authz.ActionSubmit); err != nil {
		return nil, err
	}

	var updated *model.DealRequest
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return fromRepo(err)
		}
		if req.UserID != sess.User.ID {
			return ErrNotFound
		}
		if req.State() != model.StateDraft {
			return fmt.Errorf("%w: cannot submit a request in state %s", ErrInvalidTransition, req.State())
		}

		now := s.timestamp()
		submitted := true
		version := req.Version
		updated, err = s.repo.UpdateByID(txCtx, id, model.DealRequestPatch{
			SubmittedForApproval: &submitted,
			SubmittedAt:          &now,
			ExpectedVersion:      &version,
		})
		return fromRepo(err)
	})
	if err != nil {
		metrics.ObserveTransition("submit", resultLabel(err))
		return nil, err
	}

	metrics.ObserveTransition("submit", "ok")
	s.audit.LogRequest(ctx, sess.User.ID.String(), audit.ActionSubmitRequest, id.String(), "success", "")
	return updated, nil
}

// BulkSubmit submits each id on its own. A failure does not stop the rest.
func (s *dealRequestService) BulkSubmit(ctx context.Context, sess *session.Session, in BulkSubmitInput) ([]BulkResult, error) {
	if err := authorize(s.enforcer, sess, authz.ResourceRequests, authz.ActionSubmit); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	results := make([]BulkResult, 0, len(in.IDs))
	for _, id := range in.IDs {
		req, err := s.SubmitForApproval(ctx, sess, id)
		results = append(results, bulkResult(id, req, err))
	}
	return results, nil
}

// Decide records the reviewer's outcome on a submitted, pending request.
// Decided requests are terminal here; corrections go through Redecide.
func (s *dealRequestService) Decide(ctx context.Context, sess *session.Session, id uuid.UUID, in DecisionInput) (*model.DealRequest, error) {
	ctx, span := tracer.Start(ctx, "DealRequestService.Decide")
	defer span.End()

	if err := authorize(s.enforcer, sess, authz.ResourceRequests, authz.ActionDecide); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	var updated *model.DealRequest
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return fromRepo(err)
		}
		if req.State() != model.StateSubmitted {
			return fmt.Errorf("%w: cannot decide a request in state %s", ErrInvalidTransition, req.State())
		}
		updated, err = s.applyDecision(txCtx, sess, req, in.Outcome, in.Feedback)
		return err
	})
	if err != nil {
		metrics.ObserveTransition("decide", resultLabel(err))
		return nil, err
	}

	metrics.ObserveTransition("decide", "ok")
	s.audit.LogRequest(ctx, sess.User.ID.String(), decisionAction(in.Outcome), id.String(), "success", in.Feedback)
	return updated, nil
}

func (s *dealRequestService) applyDecision(ctx context.Context, sess *session.Session, req *model.DealRequest, outcome, feedback string) (*model.DealRequest, error) {
	now := s.timestamp()
	deciderID := sess.User.ID
	version := req.Version
	updated, err := s.repo.UpdateByID(ctx, req.ID, model.DealRequestPatch{
		Status:          &outcome,
		Feedback:        &feedback,
		DecidedBy:       &deciderID,
		DecidedAt:       &now,
		ExpectedVersion: &version,
	})
	return updated, fromRepo(err)
}

// BulkDecide applies one outcome and feedback to every id. Each id is decided
// in its own transaction and failures are reported per id.
func (s *dealRequestService) BulkDecide(ctx context.Context, sess *session.Session, in BulkDecisionInput) ([]BulkResult, error) {
	if err := authorize(s.enforcer, sess, authz.ResourceRequests, authz.ActionDecide); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	results := make([]BulkResult, 0, len(in.IDs))
	for _, id := range in.IDs {
		req, err := s.Decide(ctx, sess, id, DecisionInput{Outcome: in.Outcome, Feedback: in.Feedback})
		results = append(results, bulkResult(id, req, err))
	}
	return results, nil
}

// Redecide overwrites the outcome of an already decided request. It is only
// granted when re-decisions are enabled and always requires a reason.
func (s *dealRequestService) Redecide(ctx context.Context, sess *session.Session, id uuid.UUID, in RedecisionInput) (*model.DealRequest, error) {
	ctx, span := tracer.Start(ctx, "DealRequestService.Redecide")
	defer span.End()

	if err := authorize(s.enforcer, sess, authz.ResourceRequests, authz.ActionRedecide); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	var previous string
	var updated *model.DealRequest
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return fromRepo(err)
		}
		if !req.IsDecided() {
			return fmt.Errorf("%w: only decided requests can be re-decided, state is %s", ErrInvalidTransition, req.State())
		}
		previous = req.Status
		updated, err = s.applyDecision(txCtx, sess, req, in.Outcome, in.Feedback)
		return err
	})
	if err != nil {
		metrics.ObserveTransition("redecide", resultLabel(err))
		return nil, err
	}

	if s.logger != nil {
		s.logger.Warn("deal request re-decided",
			slog.String("request_id", id.String()),
			slog.String("reviewer_id", sess.User.ID.String()),
			slog.String("from", previous),
			slog.String("to", in.Outcome),
			slog.String("reason", in.Reason),
		)
	}
	metrics.ObserveTransition("redecide", "ok")
	s.audit.LogRequest(ctx, sess.User.ID.String(), audit.ActionRedecide, id.String(), "success",
		fmt.Sprintf("%s -> %s: %s", previous, in.Outcome, in.Reason))
	return updated, nil
}

func decisionAction(outcome string) string {
	if outcome == model.StatusApproved {
		return audit.ActionApproveRequest
	}
	return audit.ActionRejectRequest
}

func bulkResult(id uuid.UUID, req *model.DealRequest, err error) BulkResult {
	if err != nil {
		return BulkResult{ID: id, OK: false, Error: err.Error()}
	}
	return BulkResult{ID: id, OK: true, Status: req.State()}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrVersionConflict):
		return "conflict"
	}
	return "error"
}
