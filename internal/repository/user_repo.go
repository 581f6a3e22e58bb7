package repository

import (
	"context"

	"dealflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository reads the seeded roster. Create is only used by seeding.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ListByRole(ctx context.Context, role string) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return translate(GetDB(ctx, r.db).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "username = ?", username).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// ListByRole returns roster users in creation order. An empty role lists everyone.
func (r *userRepository) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	var users []model.User
	query := GetDB(ctx, r.db).Order("created_at ASC, username ASC")
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
