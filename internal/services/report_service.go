package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/policy"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
)

// ReportService owns the weekly report lifecycle: draft, submitted,
// locked. Reopen goes submitted back to draft; nothing ever leaves
// locked.
type ReportService struct {
	db    database.Database
	audit *AuditService
}

func NewReportService(db database.Database, audit *AuditService) *ReportService {
	return &ReportService{db: db, audit: audit}
}

// ReportItemInput is one row of the replace-all item sync.
type ReportItemInput struct {
	Type           models.ItemType   `json:"type" binding:"required"`
	Title          string            `json:"title" binding:"required"`
	Content        string            `json:"content"`
	IssueReference string            `json:"issue_reference"`
	Tags           models.StringList `json:"tags"`
	HoursSpent     float64           `json:"hours_spent"`
	PlannedHours   float64           `json:"planned_hours"`
	IsBillable     bool              `json:"is_billable"`
	SortOrder      int               `json:"sort_order"`
	StartedAt      *time.Time        `json:"started_at"`
	EndedAt        *time.Time        `json:"ended_at"`
	Metadata       models.JSON       `json:"metadata"`
}

// CreateReportInput opens a new draft for one ISO week.
type CreateReportInput struct {
	WorkYear int               `json:"work_year" binding:"required"`
	WorkWeek int               `json:"work_week" binding:"required"`
	Summary  string            `json:"summary"`
	Items    []ReportItemInput `json:"items"`
}

// UpdateReportInput patches the summary and replaces the item set.
type UpdateReportInput struct {
	Summary *string           `json:"summary"`
	Items   []ReportItemInput `json:"items"`
}

// ReportFilter narrows listings for the review surfaces.
type ReportFilter struct {
	UserID       *uint
	DivisionID   *uint
	DepartmentID *uint
	TeamID       *uint
	Status       models.ReportStatus
	WorkYear     int
	WorkWeek     int
}

// Create opens a draft for the author's current week. If the author
// already has a report for that week the existing report is returned
// inside a DuplicateWeekError so the caller can redirect to it instead
// of failing.
func (s *ReportService) Create(ctx context.Context, author *models.User, input CreateReportInput) (*models.WeeklyReport, error) {
	tc := tenant.FromContext(ctx)
	if tc == nil || !author.BelongsTo(tc.CompanyID) {
		return nil, ErrForbidden
	}

	var existing models.WeeklyReport
	err := tenant.Scoped(s.db.DB().WithContext(ctx), ctx).
		Where("user_id = ? AND work_year = ? AND work_week = ?", author.ID, input.WorkYear, input.WorkWeek).
		First(&existing).Error
	if err == nil {
		return nil, &DuplicateWeekError{ExistingID: existing.ID, ExistingUUID: existing.UUID}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	report := models.WeeklyReport{
		UUID:      uuid.New().String(),
		CompanyID: tc.CompanyID,
		UserID:    author.ID,
		// Hierarchy placement is snapshotted at creation; later unit
		// moves do not rewrite history.
		DivisionID:   author.DivisionID,
		DepartmentID: author.DepartmentID,
		TeamID:       author.TeamID,
		WorkYear:     input.WorkYear,
		WorkWeek:     input.WorkWeek,
		Status:       models.ReportStatusDraft,
		Summary:      input.Summary,
	}
	report.Items = buildItems(report.ID, input.Items)

	err = s.db.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&report).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		CompanyID:  &tc.CompanyID,
		EntityKind: models.EntityWeeklyReport,
		EntityID:   report.ID,
		Event:      "report.created",
		ActorID:    &author.ID,
		Properties: models.JSON{"work_year": input.WorkYear, "work_week": input.WorkWeek},
	})
	return &report, nil
}

// Get loads a report with items, enforcing view policy.
func (s *ReportService) Get(ctx context.Context, viewer *models.User, id uint) (*models.WeeklyReport, error) {
	report, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewReport(viewer, report) {
		return nil, ErrForbidden
	}
	return report, nil
}

// GetByUUID is the public identifier lookup used by redirect targets.
func (s *ReportService) GetByUUID(ctx context.Context, viewer *models.User, reportUUID string) (*models.WeeklyReport, error) {
	var report models.WeeklyReport
	err := tenant.Scoped(s.db.DB().WithContext(ctx), ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Where("uuid = ?", reportUUID).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !policy.CanViewReport(viewer, &report) {
		return nil, ErrForbidden
	}
	return &report, nil
}

// Update patches the summary and, when items are present, replaces the
// whole item set in one transaction. Partial item patches are not
// supported; the client always sends the full list.
func (s *ReportService) Update(ctx context.Context, actor *models.User, id uint, input UpdateReportInput) (*models.WeeklyReport, error) {
	report, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status == models.ReportStatusLocked {
		return nil, ErrReportLocked
	}
	if !policy.CanUpdateReport(actor, report) {
		return nil, ErrForbidden
	}

	err = s.db.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.Summary != nil {
			report.Summary = *input.Summary
			if err := tx.Model(report).Update("summary", *input.Summary).Error; err != nil {
				return err
			}
		}
		if input.Items != nil {
			if err := tx.Where("report_id = ?", report.ID).
				Delete(&models.WeeklyReportItem{}).Error; err != nil {
				return err
			}
			items := buildItems(report.ID, input.Items)
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return err
				}
			}
			report.Items = items
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		CompanyID:  &report.CompanyID,
		EntityKind: models.EntityWeeklyReport,
		EntityID:   report.ID,
		Event:      "report.updated",
		ActorID:    &actor.ID,
	})
	return report, nil
}

// Submit moves draft to submitted and stamps who and when.
func (s *ReportService) Submit(ctx context.Context, actor *models.User, id uint) (*models.WeeklyReport, error) {
	report, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanSubmitReport(actor, report) {
		if report.Status != models.ReportStatusDraft {
			return nil, ErrInvalidTransition
		}
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	report.Status = models.ReportStatusSubmitted
	report.SubmittedAt = &now
	report.SubmittedBy = &actor.ID
	err = s.db.DB().WithContext(ctx).Model(report).Updates(map[string]interface{}{
		"status":       models.ReportStatusSubmitted,
		"submitted_at": &now,
		"submitted_by": actor.ID,
	}).Error
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		CompanyID:  &report.CompanyID,
		EntityKind: models.EntityWeeklyReport,
		EntityID:   report.ID,
		Event:      "report.submitted",
		ActorID:    &actor.ID,
	})
	return report, nil
}

// Reopen moves submitted back to draft. Authors cannot reopen their own
// reports; a reviewer with authority over the report's unit does it for
// them. Locked reports stay locked.
func (s *ReportService) Reopen(ctx context.Context, actor *models.User, id uint) (*models.WeeklyReport, error) {
	report, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status == models.ReportStatusLocked {
		return nil, ErrReportLocked
	}
	if !policy.CanReopenReport(actor, report) {
		if report.Status != models.ReportStatusSubmitted {
			return nil, ErrInvalidTransition
		}
		return nil, ErrForbidden
	}

	report.Status = models.ReportStatusDraft
	report.SubmittedAt = nil
	report.SubmittedBy = nil
	err = s.db.DB().WithContext(ctx).Model(report).Updates(map[string]interface{}{
		"status":       models.ReportStatusDraft,
		"submitted_at": nil,
		"submitted_by": nil,
	}).Error
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		CompanyID:  &report.CompanyID,
		EntityKind: models.EntityWeeklyReport,
		EntityID:   report.ID,
		Event:      "report.reopened",
		ActorID:    &actor.ID,
	})
	return report, nil
}

// Lock approves a submitted report and freezes it permanently.
func (s *ReportService) Lock(ctx context.Context, actor *models.User, id uint) (*models.WeeklyReport, error) {
	report, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanLockReport(actor, report) {
		if report.Status != models.ReportStatusSubmitted {
			return nil, ErrInvalidTransition
		}
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	report.Status = models.ReportStatusLocked
	report.ApprovedAt = &now
	report.ApprovedBy = &actor.ID
	report.LockedAt = &now
	err = s.db.DB().WithContext(ctx).Model(report).Updates(map[string]interface{}{
		"status":      models.ReportStatusLocked,
		"approved_at": &now,
		"approved_by": actor.ID,
		"locked_at":   &now,
	}).Error
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		CompanyID:  &report.CompanyID,
		EntityKind: models.EntityWeeklyReport,
		EntityID:   report.ID,
		Event:      "report.locked",
		ActorID:    &actor.ID,
	})
	return report, nil
}

// Delete removes a draft. Submitted and locked reports are never
// deletable.
func (s *ReportService) Delete(ctx context.Context, actor *models.User, id uint) error {
	report, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteReport(actor, report) {
		if report.Status != models.ReportStatusDraft {
			return ErrInvalidTransition
		}
		return ErrForbidden
	}

	err = s.db.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", report.ID).
			Delete(&models.WeeklyReportItem{}).Error; err != nil {
			return err
		}
		// Hard delete. A soft-deleted row would keep occupying the
		// unique (company, user, year, week) index and block
		// recreating the week.
		return tx.Unscoped().Delete(report).Error
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		CompanyID:  &report.CompanyID,
		EntityKind: models.EntityWeeklyReport,
		EntityID:   report.ID,
		Event:      "report.deleted",
		ActorID:    &actor.ID,
	})
	return nil
}

// List returns reports the viewer may see, newest week first. Members
// only ever see their own; managers see their unit per the same policy
// as Get.
func (s *ReportService) List(ctx context.Context, viewer *models.User, filter ReportFilter, page, limit int) ([]models.WeeklyReport, int64, error) {
	q := tenant.Scoped(s.db.DB().WithContext(ctx).Model(&models.WeeklyReport{}), ctx)

	if !viewer.Role.IsManager() && viewer.Role != models.RoleHQAdmin {
		q = q.Where("user_id = ?", viewer.ID)
	} else {
		switch viewer.Role {
		case models.RoleTeamLead:
			q = q.Where("team_id = ? OR user_id = ?", viewer.TeamID, viewer.ID)
		case models.RoleDepartmentManager:
			q = q.Where("department_id = ? OR user_id = ?", viewer.DepartmentID, viewer.ID)
		case models.RoleDivisionLead:
			q = q.Where("division_id = ? OR user_id = ?", viewer.DivisionID, viewer.ID)
		}
	}

	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.DivisionID != nil {
		q = q.Where("division_id = ?", *filter.DivisionID)
	}
	if filter.DepartmentID != nil {
		q = q.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.TeamID != nil {
		q = q.Where("team_id = ?", *filter.TeamID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.WorkYear != 0 {
		q = q.Where("work_year = ?", filter.WorkYear)
	}
	if filter.WorkWeek != 0 {
		q = q.Where("work_week = ?", filter.WorkWeek)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.WeeklyReport
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Order("work_year DESC, work_week DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reports).Error
	return reports, total, err
}

// Prefill derives a draft skeleton for the given week from the author's
// previous report: last week's next_week items come back as current_week
// items with the planned hours suggested as actuals. Purely advisory,
// nothing is persisted.
func (s *ReportService) Prefill(ctx context.Context, author *models.User, workYear, workWeek int) ([]ReportItemInput, error) {
	tc := tenant.FromContext(ctx)
	if tc == nil {
		return nil, ErrForbidden
	}

	// Most recent report before the target week, not necessarily the
	// directly preceding one.
	var previous models.WeeklyReport
	err := tenant.Scoped(s.db.DB().WithContext(ctx), ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Where("user_id = ? AND (work_year < ? OR (work_year = ? AND work_week < ?))",
			author.ID, workYear, workYear, workWeek).
		Order("work_year DESC, work_week DESC").
		First(&previous).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []ReportItemInput{}, nil
		}
		return nil, err
	}

	var items []ReportItemInput
	for _, item := range previous.Items {
		if item.Type != models.ItemTypeNextWeek {
			continue
		}
		items = append(items, ReportItemInput{
			Type:           models.ItemTypeCurrentWeek,
			Title:          item.Title,
			Content:        item.Content,
			IssueReference: item.IssueReference,
			Tags:           item.Tags,
			// Planned hours from last week become the suggested actuals.
			HoursSpent:   item.PlannedHours,
			PlannedHours: item.PlannedHours,
			IsBillable:   item.IsBillable,
			SortOrder:    item.SortOrder,
		})
	}
	return items, nil
}

func (s *ReportService) find(ctx context.Context, id uint) (*models.WeeklyReport, error) {
	var report models.WeeklyReport
	err := tenant.Scoped(s.db.DB().WithContext(ctx), ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

func buildItems(reportID uint, inputs []ReportItemInput) []models.WeeklyReportItem {
	items := make([]models.WeeklyReportItem, 0, len(inputs))
	for i, in := range inputs {
		sortOrder := in.SortOrder
		if sortOrder == 0 {
			sortOrder = i
		}
		items = append(items, models.WeeklyReportItem{
			ReportID:       reportID,
			Type:           in.Type,
			Title:          in.Title,
			Content:        in.Content,
			IssueReference: in.IssueReference,
			Tags:           in.Tags,
			HoursSpent:     in.HoursSpent,
			PlannedHours:   in.PlannedHours,
			IsBillable:     in.IsBillable,
			SortOrder:      sortOrder,
			StartedAt:      in.StartedAt,
			EndedAt:        in.EndedAt,
			Metadata:       in.Metadata,
		})
	}
	return items
}
