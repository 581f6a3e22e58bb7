package memory

import (
	"context"

	"dealflow/internal/model"
	"dealflow/internal/repository"

	"github.com/google/uuid"
)

type KnownUserRepository struct {
	store *Store
}

func NewKnownUserRepository(store *Store) *KnownUserRepository {
	return &KnownUserRepository{store: store}
}

var _ repository.KnownUserRepository = (*KnownUserRepository)(nil)

func (r *KnownUserRepository) Upsert(_ context.Context, u *model.KnownUser) error {
	return mutate(r.store, KeyKnownUsers, func(items []model.KnownUser) ([]model.KnownUser, error) {
		for i := range items {
			if items[i].UserID == u.UserID {
				first := items[i].FirstLoginAt
				items[i] = *u
				items[i].FirstLoginAt = first
				return items, nil
			}
		}
		return append(items, *u), nil
	})
}

func (r *KnownUserRepository) GetByID(_ context.Context, id uuid.UUID) (*model.KnownUser, error) {
	items, err := load[model.KnownUser](r.store, KeyKnownUsers)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].UserID == id {
			return &items[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *KnownUserRepository) List(_ context.Context, role string) ([]model.KnownUser, error) {
	items, err := load[model.KnownUser](r.store, KeyKnownUsers)
	if err != nil {
		return nil, err
	}
	out := make([]model.KnownUser, 0, len(items))
	for _, u := range items {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}
