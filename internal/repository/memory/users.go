package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

// UserRepository implements domain.UserRepository in memory
type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	return r.store.with(nil, func(st *state) error {
		user.Email = strings.ToLower(strings.TrimSpace(user.Email))
		for _, u := range st.users {
			if u.Email == user.Email {
				return domain.Conflict("user already exists")
			}
		}
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		now := r.store.now()
		user.CreatedAt = now
		user.UpdatedAt = now
		st.users[user.ID] = *user
		st.stamp(user.ID)
		return nil
	})
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.store.with(nil, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.NotFound("user")
		}
		out = &u
		return nil
	})
	return out, err
}

// GetByEmail matches case-insensitively
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var out *domain.User
	err := r.store.with(nil, func(st *state) error {
		for _, u := range st.users {
			if u.Email == email && u.IsActive {
				out = &u
				return nil
			}
		}
		return domain.NotFound("user")
	})
	return out, err
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	return r.store.with(nil, func(st *state) error {
		cur, ok := st.users[user.ID]
		if !ok {
			return domain.NotFound("user")
		}
		user.CreatedAt = cur.CreatedAt
		user.UpdatedAt = r.store.now()
		st.users[user.ID] = *user
		return nil
	})
}
