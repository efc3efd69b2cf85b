package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"dailyq-backend/internal/middleware"
	"dailyq-backend/internal/models"
	"dailyq-backend/internal/repository"
)

type AuthService struct {
	userRepo *repository.UserRepo
	jwt      *middleware.JWTAuth
}

func NewAuthService(userRepo *repository.UserRepo, jwt *middleware.JWTAuth) *AuthService {
	return &AuthService{userRepo: userRepo, jwt: jwt}
}

// Login matches by username or email and issues an access token carrying the
// user's role. The system actor has no credentials and can never log in.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, *models.User, error) {
	if req.Username == "" || req.Password == "" {
		return nil, nil, &ValidationError{Fields: map[string]string{"credentials": "Username and password are required"}}
	}

	user, err := s.userRepo.GetByLogin(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, &UnauthorizedError{Message: "Invalid username or password"}
		}
		return nil, nil, err
	}

	if user.Role == models.RoleSystem || user.PasswordHash == "" {
		return nil, nil, &UnauthorizedError{Message: "Invalid username or password"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, &UnauthorizedError{Message: "Invalid username or password"}
	}

	token, expiresIn, err := s.jwt.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}

	return &models.AuthTokens{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		Role:        user.Role,
	}, user, nil
}

// Me resolves the authenticated user for the /auth/me endpoint.
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	userID := middleware.GetUserID(ctx)
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: "Unknown user"}
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account at startup when configured.
// Safe to run on every boot.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}

	email := username + "@dq.local"
	_, err = s.userRepo.GetOrCreateByEmail(ctx, &models.User{
		Username:     &username,
		Email:        &email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	})
	return err
}
