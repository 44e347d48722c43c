package models

import (
	"time"

	"gorm.io/gorm"
)

type CompanyStatus string

const (
	CompanyStatusActive     CompanyStatus = "active"
	CompanyStatusSuspended  CompanyStatus = "suspended"
	CompanyStatusOnboarding CompanyStatus = "onboarding"
)

type Company struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	Slug             string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug" validate:"required"`
	Status           CompanyStatus  `gorm:"type:varchar(20);default:onboarding;not null" json:"status"`
	UserLimit        int            `gorm:"default:10;not null" json:"user_limit"`
	CurrentUserCount int            `gorm:"default:0;not null" json:"current_user_count"`
	Timezone         string         `gorm:"type:varchar(64);default:Asia/Taipei" json:"timezone"`
	Branding         JSON           `gorm:"type:json" json:"branding"`
	OnboardedAt      *time.Time     `json:"onboarded_at"`
	SuspendedAt      *time.Time     `json:"suspended_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	Setting   *CompanySetting `gorm:"foreignKey:CompanyID" json:"setting,omitempty"`
	Users     []User          `gorm:"foreignKey:CompanyID" json:"users,omitempty"`
	Divisions []Division      `gorm:"foreignKey:CompanyID" json:"divisions,omitempty"`
}

func (c *Company) TableName() string {
	return "companies"
}

// IsOnboarded reports whether the company finished onboarding and may
// receive scheduled notifications.
func (c *Company) IsOnboarded() bool {
	return c.OnboardedAt != nil
}

// CompanySetting holds per-tenant configuration, one row per company.
type CompanySetting struct {
	ID                      uint       `gorm:"primaryKey" json:"id"`
	CompanyID               uint       `gorm:"uniqueIndex;not null" json:"company_id"`
	WelcomePage             JSON       `gorm:"type:json" json:"welcome_page"`
	LoginIPWhitelist        StringList `gorm:"type:json" json:"login_ip_whitelist"`
	NotificationPreferences JSON       `gorm:"type:json" json:"notification_preferences"`
	EnabledLevels           StringList `gorm:"type:json" json:"enabled_levels"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

func (s *CompanySetting) TableName() string {
	return "company_settings"
}

// RemindersEnabled defaults to true unless the preference is explicitly off.
func (s *CompanySetting) RemindersEnabled() bool {
	if s == nil {
		return true
	}
	return s.NotificationPreferences.Bool("weekly_reminder", true)
}

// DigestsEnabled defaults to true unless the preference is explicitly off.
func (s *CompanySetting) DigestsEnabled() bool {
	if s == nil {
		return true
	}
	return s.NotificationPreferences.Bool("weekly_digest", true)
}
