package memory

import (
	"context"
	"time"

	"dealflow/internal/model"
	"dealflow/internal/repository"

	"github.com/google/uuid"
)

type DealRequestRepository struct {
	store *Store
}

func NewDealRequestRepository(store *Store) *DealRequestRepository {
	return &DealRequestRepository{store: store}
}

var _ repository.DealRequestRepository = (*DealRequestRepository)(nil)

func (r *DealRequestRepository) Create(_ context.Context, req *model.DealRequest) error {
	return mutate(r.store, KeyRequests, func(items []model.DealRequest) ([]model.DealRequest, error) {
		req.Seq = int64(len(items)) + 1
		return append(items, *req), nil
	})
}

func (r *DealRequestRepository) FindByID(_ context.Context, id uuid.UUID) (*model.DealRequest, error) {
	items, err := load[model.DealRequest](r.store, KeyRequests)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *DealRequestRepository) List(_ context.Context, filter model.DealRequestFilter) ([]model.DealRequest, int64, error) {
	items, err := load[model.DealRequest](r.store, KeyRequests)
	if err != nil {
		return nil, 0, err
	}

	matched := make([]model.DealRequest, 0, len(items))
	for _, it := range items {
		if filter.UserID != nil && it.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && it.Status != filter.Status {
			continue
		}
		if filter.SubmittedOnly && !it.SubmittedForApproval {
			continue
		}
		matched = append(matched, it)
	}

	total := int64(len(matched))
	if filter.Limit > 0 {
		start := filter.Offset
		if start < 0 {
			start = 0
		}
		if start > len(matched) {
			start = len(matched)
		}
		end := start + filter.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r *DealRequestRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]model.DealRequest, error) {
	items, _, err := r.List(ctx, model.DealRequestFilter{UserID: &userID})
	return items, err
}

func (r *DealRequestRepository) ListAll(ctx context.Context) ([]model.DealRequest, error) {
	items, _, err := r.List(ctx, model.DealRequestFilter{})
	return items, err
}

func (r *DealRequestRepository) UpdateByID(_ context.Context, id uuid.UUID, patch model.DealRequestPatch) (*model.DealRequest, error) {
	var updated model.DealRequest
	err := mutate(r.store, KeyRequests, func(items []model.DealRequest) ([]model.DealRequest, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			if patch.ExpectedVersion != nil && items[i].Version != *patch.ExpectedVersion {
				return nil, repository.ErrVersionConflict
			}
			patch.Apply(&items[i])
			items[i].UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
			updated = items[i]
			return items, nil
		}
		return nil, repository.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
