package repository

import (
	"context"
	"time"

	"dealflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DealRequestRepository stores the flat collection of deal requests.
// Listings always come back in append order.
type DealRequestRepository interface {
	Create(ctx context.Context, req *model.DealRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DealRequest, error)
	List(ctx context.Context, filter model.DealRequestFilter) ([]model.DealRequest, int64, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]model.DealRequest, error)
	ListAll(ctx context.Context) ([]model.DealRequest, error)
	UpdateByID(ctx context.Context, id uuid.UUID, patch model.DealRequestPatch) (*model.DealRequest, error)
}

type dealRequestRepository struct {
	db *gorm.DB
}

func NewDealRequestRepository(db *gorm.DB) DealRequestRepository {
	return &dealRequestRepository{db: db}
}

func (r *dealRequestRepository) Create(ctx context.Context, req *model.DealRequest) error {
	return translate(GetDB(ctx, r.db).Create(req).Error)
}

func (r *dealRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DealRequest, error) {
	var req model.DealRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *dealRequestRepository) List(ctx context.Context, filter model.DealRequestFilter) ([]model.DealRequest, int64, error) {
	var requests []model.DealRequest
	var total int64

	db := GetDB(ctx, r.db)
	scope := func(q *gorm.DB) *gorm.DB {
		if filter.UserID != nil {
			q = q.Where("user_id = ?", *filter.UserID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.SubmittedOnly {
			q = q.Where("submitted_for_approval = ?", true)
		}
		return q
	}

	if err := db.Model(&model.DealRequest{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := db.Scopes(scope).Order("seq ASC")
	if filter.Limit > 0 {
		fetch = fetch.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := fetch.Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *dealRequestRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]model.DealRequest, error) {
	requests, _, err := r.List(ctx, model.DealRequestFilter{UserID: &userID})
	return requests, err
}

func (r *dealRequestRepository) ListAll(ctx context.Context) ([]model.DealRequest, error) {
	requests, _, err := r.List(ctx, model.DealRequestFilter{})
	return requests, err
}

// UpdateByID merges patch into the stored record. The row is locked for the
// rest of the surrounding transaction and the write is guarded on the previous
// version, so a concurrent writer gets ErrVersionConflict instead of a silent overwrite.
func (r *dealRequestRepository) UpdateByID(ctx context.Context, id uuid.UUID, patch model.DealRequestPatch) (*model.DealRequest, error) {
	db := GetDB(ctx, r.db)

	var req model.DealRequest
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	if patch.ExpectedVersion != nil && req.Version != *patch.ExpectedVersion {
		return nil, ErrVersionConflict
	}

	prev := req.Version
	patch.Apply(&req)
	req.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	res := db.Model(&model.DealRequest{}).
		Where("id = ? AND version = ?", id, prev).
		Updates(map[string]interface{}{
			"status":                 req.Status,
			"feedback":               req.Feedback,
			"submitted_for_approval": req.SubmittedForApproval,
			"submitted_at":           req.SubmittedAt,
			"decided_by":             req.DecidedBy,
			"decided_at":             req.DecidedAt,
			"version":                req.Version,
			"updated_at":             req.UpdatedAt,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrVersionConflict
	}

	return &req, nil
}
