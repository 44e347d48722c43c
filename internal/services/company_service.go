package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
)

type CompanyService struct {
	db database.Database
}

func NewCompanyService(db database.Database) *CompanyService {
	return &CompanyService{db: db}
}

// GetBySlug loads a company with its settings snapshot. Used by the tenant
// resolution middleware on every request.
func (s *CompanyService) GetBySlug(ctx context.Context, slug string) (*models.Company, error) {
	var company models.Company
	err := s.db.DB().WithContext(ctx).
		Preload("Setting").
		Where("slug = ?", slug).
		First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &company, nil
}

// GetByID loads a company with its settings snapshot.
func (s *CompanyService) GetByID(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	err := s.db.DB().WithContext(ctx).
		Preload("Setting").
		Where("id = ?", id).
		First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &company, nil
}

// RegisterInput carries self-service registration data.
type RegisterInput struct {
	CompanyName string
	Slug        string
	Timezone    string
	AdminEmail  string
	AdminName   string
	Password    string
	UserLimit   int
}

// Register creates a company, its settings row and its first company_admin
// user in one transaction. The company starts in onboarding status.
func (s *CompanyService) Register(ctx context.Context, input RegisterInput) (*models.Company, *models.User, error) {
	if input.UserLimit <= 0 {
		input.UserLimit = 10
	}
	if input.Timezone == "" {
		input.Timezone = "Asia/Taipei"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	company := models.Company{
		Name:             input.CompanyName,
		Slug:             input.Slug,
		Status:           models.CompanyStatusOnboarding,
		UserLimit:        input.UserLimit,
		CurrentUserCount: 1,
		Timezone:         input.Timezone,
	}

	var admin models.User

	err = s.db.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}

		setting := models.CompanySetting{
			CompanyID:               company.ID,
			NotificationPreferences: models.JSON{},
			LoginIPWhitelist:        models.StringList{},
		}
		if err := tx.Create(&setting).Error; err != nil {
			return err
		}
		company.Setting = &setting

		now := time.Now().UTC()
		admin = models.User{
			UUID:         uuid.New().String(),
			CompanyID:    &company.ID,
			Email:        input.AdminEmail,
			PasswordHash: string(hash),
			FirstName:    input.AdminName,
			Role:         models.RoleCompanyAdmin,
			IsActive:     true,
			InvitationAcceptedAt: &now,
		}
		return tx.Create(&admin).Error
	})
	if err != nil {
		return nil, nil, err
	}

	return &company, &admin, nil
}

// Onboard marks a company active and stamps onboarded_at.
func (s *CompanyService) Onboard(ctx context.Context, companyID uint) error {
	now := time.Now().UTC()
	return s.db.DB().WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", companyID).
		Updates(map[string]interface{}{
			"status":       models.CompanyStatusActive,
			"onboarded_at": &now,
		}).Error
}

// Suspend sets the suspended status and stamps suspended_at.
func (s *CompanyService) Suspend(ctx context.Context, companyID uint) error {
	now := time.Now().UTC()
	return s.db.DB().WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", companyID).
		Updates(map[string]interface{}{
			"status":       models.CompanyStatusSuspended,
			"suspended_at": &now,
		}).Error
}

// Activate reverses a suspension, clearing suspended_at.
func (s *CompanyService) Activate(ctx context.Context, companyID uint) error {
	return s.db.DB().WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", companyID).
		Updates(map[string]interface{}{
			"status":       models.CompanyStatusActive,
			"suspended_at": nil,
		}).Error
}

// SettingsInput mirrors the tenant settings endpoint payload. Nil fields
// are left untouched.
type SettingsInput struct {
	WelcomePage             models.JSON
	LoginIPWhitelist        *models.StringList
	NotificationPreferences models.JSON
	EnabledLevels           *models.StringList
}

// UpdateSettings patches the company's settings row.
func (s *CompanyService) UpdateSettings(ctx context.Context, companyID uint, input SettingsInput) (*models.CompanySetting, error) {
	var setting models.CompanySetting
	err := s.db.DB().WithContext(ctx).Where("company_id = ?", companyID).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if input.WelcomePage != nil {
		setting.WelcomePage = input.WelcomePage
	}
	if input.LoginIPWhitelist != nil {
		setting.LoginIPWhitelist = *input.LoginIPWhitelist
	}
	if input.NotificationPreferences != nil {
		setting.NotificationPreferences = input.NotificationPreferences
	}
	if input.EnabledLevels != nil {
		setting.EnabledLevels = *input.EnabledLevels
	}

	if err := s.db.DB().WithContext(ctx).Save(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// List returns all companies, paginated. HQ surface only.
func (s *CompanyService) List(ctx context.Context, page, limit int) ([]models.Company, int64, error) {
	var (
		companies []models.Company
		total     int64
	)

	q := s.db.DB().WithContext(ctx).Model(&models.Company{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("id").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&companies).Error
	return companies, total, err
}

// CompanyStats summarizes a tenant for the HQ dashboard.
type CompanyStats struct {
	CompanyID   uint  `json:"company_id"`
	UserCount   int64 `json:"user_count"`
	ReportCount int64 `json:"report_count"`
	Divisions   int64 `json:"divisions"`
	Departments int64 `json:"departments"`
	Teams       int64 `json:"teams"`
}

// Stats counts a company's users, reports and org units.
func (s *CompanyService) Stats(ctx context.Context, companyID uint) (*CompanyStats, error) {
	db := s.db.DB().WithContext(ctx)
	stats := CompanyStats{CompanyID: companyID}

	type count struct {
		model interface{}
		dest  *int64
	}
	counts := []count{
		{&models.User{}, &stats.UserCount},
		{&models.WeeklyReport{}, &stats.ReportCount},
		{&models.Division{}, &stats.Divisions},
		{&models.Department{}, &stats.Departments},
		{&models.Team{}, &stats.Teams},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where("company_id = ?", companyID).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	return &stats, nil
}
