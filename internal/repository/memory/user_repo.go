package memory

import (
	"context"
	"time"

	"dealflow/internal/model"
	"dealflow/internal/repository"

	"github.com/google/uuid"
)

// userRecord is the stored form of a roster user. model.User hides the
// password hash from JSON, so the blob carries it in its own field.
type userRecord struct {
	model.User
	PasswordHash string `json:"password_hash"`
}

func (r userRecord) toModel() *model.User {
	u := r.User
	u.PasswordHash = r.PasswordHash
	return &u
}

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	return mutate(r.store, KeyUsers, func(items []userRecord) ([]userRecord, error) {
		for _, u := range items {
			if u.Username == user.Username {
				return nil, repository.ErrDuplicate
			}
		}
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		if user.CreatedAt.IsZero() {
			user.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
		}
		return append(items, userRecord{User: *user, PasswordHash: user.PasswordHash}), nil
	})
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return r.find(func(u userRecord) bool { return u.ID == id })
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u userRecord) bool { return u.Username == username })
}

func (r *UserRepository) ListByRole(_ context.Context, role string) ([]model.User, error) {
	items, err := load[userRecord](r.store, KeyUsers)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(items))
	for _, u := range items {
		if role == "" || u.Role == role {
			out = append(out, *u.toModel())
		}
	}
	return out, nil
}

func (r *UserRepository) find(match func(userRecord) bool) (*model.User, error) {
	items, err := load[userRecord](r.store, KeyUsers)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if match(items[i]) {
			return items[i].toModel(), nil
		}
	}
	return nil, repository.ErrNotFound
}
