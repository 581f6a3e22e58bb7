package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles
const (
	RoleSubmitter = "submitter"
	RoleReviewer  = "reviewer"
)

// User is read-only roster data. It is seeded at startup and never mutated afterwards.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Role         string    `gorm:"type:varchar(20);not null;index" json:"role"` // submitter, reviewer
	Region       string    `gorm:"type:varchar(100)" json:"region,omitempty"`
	AvatarURL    string    `gorm:"type:text" json:"avatar,omitempty"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// KnownUser records every roster user that has logged in at least once.
// The reviewer's per-user listing reads from here, not from the roster.
type KnownUser struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(255);index;not null" json:"username"`
	Name         string    `gorm:"type:varchar(255)" json:"name"`
	Role         string    `gorm:"type:varchar(20);not null" json:"role"`
	Region       string    `gorm:"type:varchar(100)" json:"region,omitempty"`
	FirstLoginAt time.Time `json:"first_login_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	return role == RoleSubmitter || role == RoleReviewer
}
