package services

import (
	"context"
	"sync"

	"dailyq-backend/internal/models"
)

const systemUserEmail = "system@dq.local"

// systemUserStore is the slice of the user repository the system actor needs.
type systemUserStore interface {
	GetOrCreateByEmail(ctx context.Context, user *models.User) (*models.User, error)
}

// SystemUserService resolves the well-known system actor that automatic
// unlocks are attributed to in the activity log. The row is created lazily on
// first use and cached for the process lifetime.
type SystemUserService struct {
	users systemUserStore

	mu     sync.Mutex
	cached *models.User
}

func NewSystemUserService(users systemUserStore) *SystemUserService {
	return &SystemUserService{users: users}
}

func (s *SystemUserService) Get(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return s.cached, nil
	}

	email := systemUserEmail
	user, err := s.users.GetOrCreateByEmail(ctx, &models.User{
		Email: &email,
		Role:  models.RoleSystem,
	})
	if err != nil {
		return nil, err
	}

	s.cached = user
	return user, nil
}
