package models

import "time"

// EntityKind is the closed set of auditable entity types. Keeping this an
// enum instead of an open string keeps references checkable.
type EntityKind string

const (
	EntityCompany      EntityKind = "company"
	EntityDivision     EntityKind = "division"
	EntityDepartment   EntityKind = "department"
	EntityTeam         EntityKind = "team"
	EntityUser         EntityKind = "user"
	EntityWeeklyReport EntityKind = "weekly_report"
	EntityHoliday      EntityKind = "holiday"
)

// AuditLog rows are append-only; the application never updates or deletes
// them.
type AuditLog struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CompanyID   *uint      `gorm:"index" json:"company_id"`
	EntityKind  EntityKind `gorm:"type:varchar(30);not null;index:idx_audit_entity" json:"entity_kind"`
	EntityID    uint       `gorm:"not null;index:idx_audit_entity" json:"entity_id"`
	Event       string     `gorm:"type:varchar(100);not null;index" json:"event"`
	Description string     `gorm:"type:text" json:"description"`
	Properties  JSON       `gorm:"type:json" json:"properties"`
	ActorID     *uint      `gorm:"index" json:"actor_id"`
	IP          string     `gorm:"type:varchar(45)" json:"ip"`
	UserAgent   string     `gorm:"type:varchar(512)" json:"user_agent"`
	OccurredAt  time.Time  `gorm:"not null;index" json:"occurred_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (a *AuditLog) TableName() string {
	return "audit_logs"
}
