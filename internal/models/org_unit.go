package models

import (
	"time"

	"gorm.io/gorm"
)

// Division is the top level of the optional three-level hierarchy.
type Division struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CompanyID         uint           `gorm:"not null;index;uniqueIndex:idx_divisions_company_slug" json:"company_id"`
	Name              string         `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	Slug              string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_divisions_company_slug" json:"slug" validate:"required"`
	SortOrder         int            `gorm:"default:0" json:"sort_order"`
	IsActive          bool           `gorm:"default:true" json:"is_active"`
	InvitationToken   *string        `gorm:"type:varchar(100)" json:"invitation_token,omitempty"`
	InvitationEnabled bool           `gorm:"default:false" json:"invitation_enabled"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	Departments []Department `gorm:"foreignKey:DivisionID" json:"departments,omitempty"`
}

func (d *Division) TableName() string {
	return "divisions"
}

// Department optionally belongs to a Division.
type Department struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CompanyID         uint           `gorm:"not null;index;uniqueIndex:idx_departments_company_slug" json:"company_id"`
	DivisionID        *uint          `gorm:"index" json:"division_id"`
	Name              string         `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	Slug              string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_departments_company_slug" json:"slug" validate:"required"`
	SortOrder         int            `gorm:"default:0" json:"sort_order"`
	IsActive          bool           `gorm:"default:true" json:"is_active"`
	InvitationToken   *string        `gorm:"type:varchar(100)" json:"invitation_token,omitempty"`
	InvitationEnabled bool           `gorm:"default:false" json:"invitation_enabled"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	Teams []Team `gorm:"foreignKey:DepartmentID" json:"teams,omitempty"`
}

func (d *Department) TableName() string {
	return "departments"
}

// Team optionally references both its Division and Department. Deleting a
// parent unit nulls these references, it never cascades.
type Team struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CompanyID         uint           `gorm:"not null;index;uniqueIndex:idx_teams_company_slug" json:"company_id"`
	DivisionID        *uint          `gorm:"index" json:"division_id"`
	DepartmentID      *uint          `gorm:"index" json:"department_id"`
	Name              string         `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	Slug              string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_teams_company_slug" json:"slug" validate:"required"`
	SortOrder         int            `gorm:"default:0" json:"sort_order"`
	IsActive          bool           `gorm:"default:true" json:"is_active"`
	InvitationToken   *string        `gorm:"type:varchar(100)" json:"invitation_token,omitempty"`
	InvitationEnabled bool           `gorm:"default:false" json:"invitation_enabled"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Team) TableName() string {
	return "teams"
}
