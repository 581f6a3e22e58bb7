// Package session models the acting identity. A Session is created at login,
// passed explicitly to every operation, and destroyed at logout.
package session

import (
	"context"
	"errors"
	"time"

	"dealflow/internal/model"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Session is the established identity of one logged-in user.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// User is the session's copy of the roster record, without credentials.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Region    string    `json:"region,omitempty"`
	AvatarURL string    `json:"avatar,omitempty"`
}

func FromModel(u *model.User) User {
	return User{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Role:      u.Role,
		Region:    u.Region,
		AvatarURL: u.AvatarURL,
	}
}

// HasRole is nil-safe: no session has no role.
func (s *Session) HasRole(role string) bool {
	return s != nil && s.User.Role == role
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persists sessions by id.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
