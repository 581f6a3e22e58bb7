package database

import (
	"context"
	"errors"
	"fmt"

	"dealflow/internal/model"
	"dealflow/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RosterEntry is one seeded account. ID may be empty, in which case a fresh
// UUID is generated on first seed.
type RosterEntry struct {
	ID        string
	Username  string
	Password  string
	Name      string
	Role      string
	Region    string
	AvatarURL string
}

// DefaultRoster is the fixed credential table.
var DefaultRoster = []RosterEntry{
	{
		Username:  "john.doe",
		Password:  "password123",
		Name:      "John Doe",
		Role:      model.RoleSubmitter,
		Region:    "North",
		AvatarURL: "https://ui-avatars.com/api/?name=John+Doe&background=FBB829&color=fff",
	},
	{
		Username:  "jane.smith",
		Password:  "password123",
		Name:      "Jane Smith",
		Role:      model.RoleSubmitter,
		Region:    "East",
		AvatarURL: "https://ui-avatars.com/api/?name=Jane+Smith&background=FBB829&color=fff",
	},
	{
		Username:  "mike.wilson",
		Password:  "password123",
		Name:      "Mike Wilson",
		Role:      model.RoleReviewer,
		Region:    "National",
		AvatarURL: "https://ui-avatars.com/api/?name=Mike+Wilson&background=FBB829&color=fff",
	},
}

// SeedRoster creates every roster entry that is not stored yet. Existing
// users are left untouched. cost is the bcrypt cost; 0 means bcrypt.DefaultCost.
func SeedRoster(ctx context.Context, users repository.UserRepository, roster []RosterEntry, cost int) (int, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	created := 0
	for _, entry := range roster {
		if !model.IsValidRole(entry.Role) {
			return created, fmt.Errorf("seed %s: invalid role %q", entry.Username, entry.Role)
		}
		_, err := users.GetByUsername(ctx, entry.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return created, err
		}

		id := uuid.New()
		if entry.ID != "" {
			id, err = uuid.Parse(entry.ID)
			if err != nil {
				return created, fmt.Errorf("seed %s: %w", entry.Username, err)
			}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(entry.Password), cost)
		if err != nil {
			return created, fmt.Errorf("seed %s: failed to hash password: %w", entry.Username, err)
		}

		if err := users.Create(ctx, &model.User{
			ID:           id,
			Username:     entry.Username,
			Name:         entry.Name,
			Role:         entry.Role,
			Region:       entry.Region,
			AvatarURL:    entry.AvatarURL,
			PasswordHash: string(hash),
		}); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				continue // seeded concurrently by another instance
			}
			return created, fmt.Errorf("seed %s: %w", entry.Username, err)
		}
		created++
	}
	return created, nil
}
