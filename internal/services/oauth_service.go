package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/chang180/timesheet-saas-sub001/internal/config"
	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
)

// OAuth intents carried inside the signed state token. The state is a
// short-lived JWT instead of a server-side session, so the callback can
// be verified without shared storage.
const (
	OAuthIntentLogin = "login"
	OAuthIntentLink  = "link"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthService implements Google sign-in for tenant users.
type OAuthService struct {
	db  database.Database
	jwt *JWTService
	cfg config.OAuthConfig

	// userInfoURL is swapped out in tests.
	userInfoURL string
}

func NewOAuthService(db database.Database, jwt *JWTService, cfg config.OAuthConfig) *OAuthService {
	return &OAuthService{
		db:          db,
		jwt:         jwt,
		cfg:         cfg,
		userInfoURL: googleUserInfoURL,
	}
}

func (s *OAuthService) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  fmt.Sprintf("%s/api/v1/auth/google/callback", s.cfg.RedirectBaseURL),
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// BeginLogin returns the Google consent URL for a tenant login. The
// company slug rides in the signed state so the callback lands back in
// the right tenant.
func (s *OAuthService) BeginLogin(companySlug string) (string, error) {
	state, err := s.jwt.GenerateIntentToken(OAuthIntentLogin, companySlug, "", 0)
	if err != nil {
		return "", err
	}
	return s.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// BeginLink returns the consent URL for attaching a Google identity to
// an already authenticated user.
func (s *OAuthService) BeginLink(userID uint) (string, error) {
	state, err := s.jwt.GenerateIntentToken(OAuthIntentLink, "", "", userID)
	if err != nil {
		return "", err
	}
	return s.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// HandleCallback completes either intent. For login it resolves the
// user by Google id, falling back to a verified email match inside the
// state's company, and returns a token pair. For link it attaches the
// identity to the intent's user.
func (s *OAuthService) HandleCallback(ctx context.Context, code, state string) (*models.User, *TokenPair, error) {
	claims, err := s.jwt.ValidateIntentToken(state)
	if err != nil {
		return nil, nil, ErrInvalidCredential
	}

	token, err := s.oauth2Config().Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	info, err := s.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	switch claims.Intent {
	case OAuthIntentLink:
		return s.completeLink(ctx, claims.UserID, info)
	case OAuthIntentLogin:
		return s.completeLogin(ctx, claims.CompanySlug, info)
	}
	return nil, nil, ErrInvalidCredential
}

func (s *OAuthService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := s.oauth2Config().Client(ctx, token)
	client.Timeout = 10 * time.Second

	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info endpoint returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.ID == "" || info.Email == "" {
		return nil, errors.New("incomplete user info from provider")
	}
	return &info, nil
}

func (s *OAuthService) completeLink(ctx context.Context, userID uint, info *googleUserInfo) (*models.User, *TokenPair, error) {
	var user models.User
	err := s.db.DB().WithContext(ctx).
		Where("id = ? AND is_active = ?", userID, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	err = s.db.DB().WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"google_id":    info.ID,
		"google_email": info.Email,
	}).Error
	if err != nil {
		return nil, nil, err
	}
	user.GoogleID = &info.ID
	user.GoogleEmail = &info.Email
	return &user, nil, nil
}

func (s *OAuthService) completeLogin(ctx context.Context, companySlug string, info *googleUserInfo) (*models.User, *TokenPair, error) {
	var company models.Company
	err := s.db.DB().WithContext(ctx).Where("slug = ?", companySlug).First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if company.Status == models.CompanyStatusSuspended {
		return nil, nil, ErrTenantSuspended
	}

	var user models.User
	err = s.db.DB().WithContext(ctx).
		Where("company_id = ? AND google_id = ? AND is_active = ?", company.ID, info.ID, true).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// First Google sign-in: match by email and link.
		err = s.db.DB().WithContext(ctx).
			Where("company_id = ? AND email = ? AND is_active = ?", company.ID, info.Email, true).
			First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrInvalidCredential
			}
			return nil, nil, err
		}
		err = s.db.DB().WithContext(ctx).Model(&user).Updates(map[string]interface{}{
			"google_id":    info.ID,
			"google_email": info.Email,
		}).Error
		if err != nil {
			return nil, nil, err
		}
	} else if err != nil {
		return nil, nil, err
	}

	access, err := s.jwt.GenerateToken(&user)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(&user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	if err := s.db.DB().WithContext(ctx).Model(&user).Update("last_login_at", &now).Error; err != nil {
		return nil, nil, err
	}

	return &user, &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}, nil
}
