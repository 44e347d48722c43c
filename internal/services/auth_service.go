package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
)

// AuthService handles password login and token refresh.
type AuthService struct {
	db  database.Database
	jwt *JWTService
}

func NewAuthService(db database.Database, jwt *JWTService) *AuthService {
	return &AuthService{db: db, jwt: jwt}
}

// TokenPair is the login and refresh response body.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Login verifies credentials and issues a token pair. When companyID is
// non-nil the user must belong to that company; HQ admins log in without
// a tenant.
func (s *AuthService) Login(ctx context.Context, email, password string, companyID *uint) (*models.User, *TokenPair, error) {
	var user models.User
	q := s.db.DB().WithContext(ctx).Where("email = ? AND is_active = ?", email, true)
	if companyID != nil {
		q = q.Where("company_id = ?", *companyID)
	}
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredential
		}
		return nil, nil, err
	}

	if user.PasswordHash == "" {
		return nil, nil, ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredential
	}

	pair, err := s.issuePair(&user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	if err := s.db.DB().WithContext(ctx).Model(&user).Update("last_login_at", &now).Error; err != nil {
		return nil, nil, err
	}
	return &user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, *TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, ErrInvalidCredential
	}

	var user models.User
	err = s.db.DB().WithContext(ctx).
		Where("id = ? AND is_active = ?", claims.UserID, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredential
		}
		return nil, nil, err
	}

	pair, err := s.issuePair(&user)
	if err != nil {
		return nil, nil, err
	}
	return &user, pair, nil
}

func (s *AuthService) issuePair(user *models.User) (*TokenPair, error) {
	access, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	}, nil
}
