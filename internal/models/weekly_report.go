package models

import (
	"time"

	"gorm.io/gorm"
)

type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusSubmitted ReportStatus = "submitted"
	ReportStatusLocked    ReportStatus = "locked"
)

type ItemType string

const (
	ItemTypeCurrentWeek ItemType = "current_week"
	ItemTypeNextWeek    ItemType = "next_week"
)

// WeeklyReport holds one user's report for one ISO week. The division,
// department and team ids are snapshotted from the author at creation time
// and keep their value if the author later moves units.
type WeeklyReport struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UUID         string       `gorm:"type:varchar(100);uniqueIndex" json:"uuid"`
	CompanyID    uint         `gorm:"not null;uniqueIndex:idx_reports_company_user_week" json:"company_id"`
	UserID       uint         `gorm:"not null;uniqueIndex:idx_reports_company_user_week" json:"user_id"`
	DivisionID   *uint        `gorm:"index" json:"division_id"`
	DepartmentID *uint        `gorm:"index" json:"department_id"`
	TeamID       *uint        `gorm:"index" json:"team_id"`
	WorkYear     int          `gorm:"not null;uniqueIndex:idx_reports_company_user_week" json:"work_year"`
	WorkWeek     int          `gorm:"not null;uniqueIndex:idx_reports_company_user_week" json:"work_week"`
	Status       ReportStatus `gorm:"type:varchar(20);default:draft;not null;index" json:"status"`
	Summary      string       `gorm:"type:text" json:"summary"`
	Metadata     JSON         `gorm:"type:json" json:"metadata"`

	SubmittedAt *time.Time `json:"submitted_at"`
	SubmittedBy *uint      `json:"submitted_by"`
	ApprovedAt  *time.Time `json:"approved_at"`
	ApprovedBy  *uint      `json:"approved_by"`
	LockedAt    *time.Time `json:"locked_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User  *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []WeeklyReportItem `gorm:"foreignKey:ReportID" json:"items,omitempty"`
}

func (r *WeeklyReport) TableName() string {
	return "weekly_reports"
}

// TotalHours sums actual hours over current_week items only. Planned hours
// on next_week items never count toward a week's total.
func (r *WeeklyReport) TotalHours() float64 {
	var total float64
	for _, item := range r.Items {
		if item.Type == ItemTypeCurrentWeek {
			total += item.HoursSpent
		}
	}
	return total
}

// BillableHours sums actual hours over billable current_week items.
func (r *WeeklyReport) BillableHours() float64 {
	var total float64
	for _, item := range r.Items {
		if item.Type == ItemTypeCurrentWeek && item.IsBillable {
			total += item.HoursSpent
		}
	}
	return total
}

type WeeklyReportItem struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ReportID       uint       `gorm:"not null;index" json:"report_id"`
	Type           ItemType   `gorm:"type:varchar(20);not null;index" json:"type"`
	Title          string     `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=1,max=255"`
	Content        string     `gorm:"type:text" json:"content"`
	IssueReference string     `gorm:"type:varchar(100)" json:"issue_reference"`
	Tags           StringList `gorm:"type:json" json:"tags"`
	HoursSpent     float64    `gorm:"default:0" json:"hours_spent"`
	PlannedHours   float64    `gorm:"default:0" json:"planned_hours"`
	IsBillable     bool       `gorm:"default:false" json:"is_billable"`
	SortOrder      int        `gorm:"default:0" json:"sort_order"`
	StartedAt      *time.Time `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at"`
	Metadata       JSON       `gorm:"type:json" json:"metadata"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (i *WeeklyReportItem) TableName() string {
	return "weekly_report_items"
}
