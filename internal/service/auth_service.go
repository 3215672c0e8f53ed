package service

import (
	"context"
	"errors"
	"strings"

	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/ratelimit"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials hides whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLoginRateLimited   = errors.New("too many login attempts")
)

// AuthService checks panel credentials.
type AuthService struct {
	db      *gorm.DB
	limiter *ratelimit.Limiter
}

// NewAuthService creates an AuthService instance. A nil limiter disables
// login throttling.
func NewAuthService(gdb *gorm.DB, limiter *ratelimit.Limiter) *AuthService {
	return &AuthService{db: gdb, limiter: limiter}
}

// Login throttles by clientKey, records the attempt and then authenticates.
// Every attempt counts, successful or not.
func (s *AuthService) Login(ctx context.Context, clientKey, username, password string) (*db.AdminUser, error) {
	if s.limiter != nil {
		if !s.limiter.Allow(clientKey) {
			return nil, ErrLoginRateLimited
		}
		s.limiter.Record(clientKey)
	}
	return s.Authenticate(ctx, username, password)
}

// Authenticate returns the admin whose username and password match.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*db.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user db.AdminUser
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Exists reports whether the admin id is still present.
func (s *AuthService) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.AdminUser{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
