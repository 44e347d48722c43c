package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleMember            Role = "member"
	RoleTeamLead          Role = "team_lead"
	RoleDepartmentManager Role = "department_manager"
	RoleDivisionLead      Role = "division_lead"
	RoleCompanyAdmin      Role = "company_admin"
	// RoleHQAdmin is reserved for non-tenant superusers administering
	// companies themselves.
	RoleHQAdmin Role = "hq_admin"
)

// IsManager reports whether the role outranks a plain member.
func (r Role) IsManager() bool {
	switch r {
	case RoleTeamLead, RoleDepartmentManager, RoleDivisionLead, RoleCompanyAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UUID         string `gorm:"type:varchar(100);uniqueIndex" json:"uuid"`
	CompanyID    *uint  `gorm:"index" json:"company_id"` // nil for HQ admins
	DivisionID   *uint  `gorm:"index" json:"division_id"`
	DepartmentID *uint  `gorm:"index" json:"department_id"`
	TeamID       *uint  `gorm:"index" json:"team_id"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email" validate:"required,email"`
	PasswordHash string `gorm:"type:varchar(255)" json:"-"`
	FirstName    string `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string `gorm:"type:varchar(100)" json:"last_name"`
	Role         Role   `gorm:"type:varchar(50);default:member" json:"role"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	InvitationToken      *string    `gorm:"type:varchar(100);index" json:"-"`
	InvitationSentAt     *time.Time `json:"invitation_sent_at"`
	InvitationAcceptedAt *time.Time `json:"invitation_accepted_at"`

	GoogleID    *string    `gorm:"type:varchar(255);index" json:"-"`
	GoogleEmail *string    `gorm:"type:varchar(255)" json:"google_email,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (u *User) TableName() string {
	return "users"
}

// BelongsTo reports whether the user is a member of the given company.
func (u *User) BelongsTo(companyID uint) bool {
	return u.CompanyID != nil && *u.CompanyID == companyID
}

// FullName joins the name parts, tolerating empty components.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
