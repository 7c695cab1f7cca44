package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
)

type UserRepository struct {
	mu      sync.RWMutex
	users   map[string]*user.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[string]*user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Insert(ctx context.Context, u *user.User) error {
	_ = ctx
	if u == nil || u.ID == "" {
		return fmt.Errorf("user repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	email := user.NormalizeEmail(u.Email)
	if _, exists := r.byEmail[email]; exists {
		return user.ErrEmailTaken
	}
	if u.StoreName != "" {
		for _, existing := range r.users {
			if existing.StoreName == u.StoreName {
				return user.ErrStoreNameTaken
			}
		}
	}

	r.users[u.ID] = u.Clone()
	r.byEmail[email] = u.ID
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return nil, user.ErrNotFound
	}
	return r.users[id].Clone(), nil
}
