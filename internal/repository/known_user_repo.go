package repository

import (
	"context"

	"dealflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type KnownUserRepository interface {
	Upsert(ctx context.Context, u *model.KnownUser) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.KnownUser, error)
	List(ctx context.Context, role string) ([]model.KnownUser, error)
}

type knownUserRepository struct {
	db *gorm.DB
}

func NewKnownUserRepository(db *gorm.DB) KnownUserRepository {
	return &knownUserRepository{db: db}
}

// Upsert inserts the entry or refreshes its profile fields and LastLoginAt.
// FirstLoginAt is kept from the first insert.
func (r *knownUserRepository) Upsert(ctx context.Context, u *model.KnownUser) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "name", "role", "region", "last_login_at"}),
	}).Create(u).Error
}

func (r *knownUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.KnownUser, error) {
	var u model.KnownUser
	if err := GetDB(ctx, r.db).First(&u, "user_id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *knownUserRepository) List(ctx context.Context, role string) ([]model.KnownUser, error) {
	var users []model.KnownUser
	query := GetDB(ctx, r.db).Order("first_login_at ASC")
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
