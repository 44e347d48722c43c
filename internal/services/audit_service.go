package services

import (
	"context"
	"time"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

// AuditService appends audit events. Recording is best-effort: a failed
// write is logged and never fails the primary operation.
type AuditService struct {
	db database.Database
}

func NewAuditService(db database.Database) *AuditService {
	return &AuditService{db: db}
}

// AuditEntry describes one event to record.
type AuditEntry struct {
	CompanyID   *uint
	EntityKind  models.EntityKind
	EntityID    uint
	Event       string
	Description string
	Properties  models.JSON
	ActorID     *uint
	IP          string
	UserAgent   string
}

// Record appends one audit event.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	row := models.AuditLog{
		CompanyID:   entry.CompanyID,
		EntityKind:  entry.EntityKind,
		EntityID:    entry.EntityID,
		Event:       entry.Event,
		Description: entry.Description,
		Properties:  entry.Properties,
		ActorID:     entry.ActorID,
		IP:          entry.IP,
		UserAgent:   entry.UserAgent,
		OccurredAt:  time.Now().UTC(),
	}

	if err := s.db.DB().WithContext(ctx).Create(&row).Error; err != nil {
		utils.LogError(ctx, "Failed to record audit event", err, utils.LogFields{
			"event":       entry.Event,
			"entity_kind": entry.EntityKind,
			"entity_id":   entry.EntityID,
		})
	}
}

// List returns a tenant's audit trail, newest first.
func (s *AuditService) List(ctx context.Context, companyID uint, page, limit int) ([]models.AuditLog, int64, error) {
	var (
		logs  []models.AuditLog
		total int64
	)

	q := s.db.DB().WithContext(ctx).Model(&models.AuditLog{}).Where("company_id = ?", companyID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("occurred_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error
	return logs, total, err
}
