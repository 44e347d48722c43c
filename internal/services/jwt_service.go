package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/chang180/timesheet-saas-sub001/internal/models"
)

const tokenIssuer = "weekly-report-api"

type JWTService struct {
	secret        []byte
	expiry        time.Duration
	refreshExpiry time.Duration
	intentSecret  []byte
	intentExpiry  time.Duration
}

type Claims struct {
	UserID    uint        `json:"user_id"`
	CompanyID uint        `json:"company_id,omitempty"` // 0 for HQ admins
	Email     string      `json:"email,omitempty"`
	Role      models.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// IntentClaims is the short-lived signed token carried through the external
// OAuth redirect instead of server-side session state.
type IntentClaims struct {
	Intent          string `json:"intent"` // "login", "register", "link"
	CompanySlug     string `json:"company_slug,omitempty"`
	InvitationToken string `json:"invitation_token,omitempty"`
	UserID          uint   `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

func NewJWTService(secret string, expiry time.Duration, intentSecret string, intentExpiry time.Duration) *JWTService {
	if intentSecret == "" {
		intentSecret = secret
	}
	return &JWTService{
		secret:        []byte(secret),
		expiry:        expiry,
		refreshExpiry: expiry * 7,
		intentSecret:  []byte(intentSecret),
		intentExpiry:  intentExpiry,
	}
}

// SetRefreshExpiry overrides the default refresh expiry (7x access expiry).
func (s *JWTService) SetRefreshExpiry(d time.Duration) {
	if d > 0 {
		s.refreshExpiry = d
	}
}

func (s *JWTService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	var companyID uint
	if user.CompanyID != nil {
		companyID = *user.CompanyID
	}
	claims := Claims{
		UserID:    user.ID,
		CompanyID: companyID,
		Email:     user.Email,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) GenerateRefreshToken(user *models.User) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

func (s *JWTService) ValidateRefreshToken(tokenString string) (*RefreshClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*RefreshClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid refresh token")
}

// GenerateIntentToken signs an OAuth intent for the round trip through the
// provider redirect.
func (s *JWTService) GenerateIntentToken(intent, companySlug, invitationToken string, userID uint) (string, error) {
	now := time.Now()
	claims := IntentClaims{
		Intent:          intent,
		CompanySlug:     companySlug,
		InvitationToken: invitationToken,
		UserID:          userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.intentExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.intentSecret)
}

// ValidateIntentToken verifies a state token returned by the provider
// callback.
func (s *JWTService) ValidateIntentToken(tokenString string) (*IntentClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IntentClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.intentSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*IntentClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid intent token")
}
