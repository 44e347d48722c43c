package services

import (
	"context"
	"time"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

// Notification kinds sent by the scheduled jobs.
const (
	NotificationWeeklyReminder = "WeeklyReportReminder"
	NotificationWeeklyDigest   = "WeeklyReportDigest"
)

// Notification is one message bound for one user.
type Notification struct {
	Kind      string
	CompanyID uint
	UserID    uint
	Email     string
	Subject   string
	Payload   models.JSON
}

// Notifier delivers notifications. The default implementation only logs;
// a mail or chat transport slots in behind the same interface.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// LogNotifier writes every notification to the structured log. Used in
// development and as the fallback delivery channel.
type LogNotifier struct {
	logger utils.Logger
}

func NewLogNotifier(logger utils.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Send(_ context.Context, n Notification) error {
	l.logger.Info("Notification dispatched", utils.LogFields{
		"kind":       n.Kind,
		"company_id": n.CompanyID,
		"user_id":    n.UserID,
		"email":      n.Email,
		"subject":    n.Subject,
	})
	return nil
}

// DigestSummary aggregates one company's activity for one ISO week.
type DigestSummary struct {
	CompanyID       uint    `json:"company_id"`
	WorkYear        int     `json:"work_year"`
	WorkWeek        int     `json:"work_week"`
	TotalHours      float64 `json:"total_hours"`
	BillableHours   float64 `json:"billable_hours"`
	SubmittedCount  int     `json:"submitted_count"`
	DraftCount      int     `json:"draft_count"`
	LockedCount     int     `json:"locked_count"`
	ContributorsCnt int     `json:"contributors"`
}

// NotificationService runs the reminder and digest jobs across all
// onboarded tenants. It is invoked from the scheduler binary, never from
// request handlers.
type NotificationService struct {
	db       database.Database
	notifier Notifier
	logger   utils.Logger
}

func NewNotificationService(db database.Database, notifier Notifier, logger utils.Logger) *NotificationService {
	return &NotificationService{db: db, notifier: notifier, logger: logger}
}

// RunReminders notifies every user without a submitted report for the
// given ISO week, one notification per user. Companies that are not
// onboarded, suspended, or have reminders disabled are skipped whole.
func (s *NotificationService) RunReminders(ctx context.Context, workYear, workWeek int) (int, error) {
	companies, err := s.eligibleCompanies(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, company := range companies {
		if !company.Setting.RemindersEnabled() {
			continue
		}

		var members []models.User
		err := s.db.DB().WithContext(ctx).
			Where("company_id = ? AND is_active = ?", company.ID, true).
			Find(&members).Error
		if err != nil {
			s.logger.Error("Reminder member query failed", err, utils.LogFields{"company_id": company.ID})
			continue
		}

		var submittedUserIDs []uint
		err = s.db.DB().WithContext(ctx).Model(&models.WeeklyReport{}).
			Where("company_id = ? AND work_year = ? AND work_week = ? AND status IN ?",
				company.ID, workYear, workWeek,
				[]models.ReportStatus{models.ReportStatusSubmitted, models.ReportStatusLocked}).
			Pluck("user_id", &submittedUserIDs).Error
		if err != nil {
			s.logger.Error("Reminder report query failed", err, utils.LogFields{"company_id": company.ID})
			continue
		}
		submitted := make(map[uint]bool, len(submittedUserIDs))
		for _, id := range submittedUserIDs {
			submitted[id] = true
		}

		for _, member := range members {
			if submitted[member.ID] {
				continue
			}
			n := Notification{
				Kind:      NotificationWeeklyReminder,
				CompanyID: company.ID,
				UserID:    member.ID,
				Email:     member.Email,
				Subject:   "Your weekly report is still open",
				Payload: models.JSON{
					"work_year": workYear,
					"work_week": workWeek,
				},
			}
			if err := s.notifier.Send(ctx, n); err != nil {
				s.logger.Error("Reminder delivery failed", err, utils.LogFields{
					"company_id": company.ID,
					"user_id":    member.ID,
				})
				continue
			}
			sent++
		}
	}
	return sent, nil
}

// RunDigest summarizes the target week per company and notifies every
// manager-role user. Team leads are deliberately excluded from digests;
// they work from the live review queue instead. Companies with zero
// reports for the week send nothing.
func (s *NotificationService) RunDigest(ctx context.Context, workYear, workWeek int) (int, error) {
	companies, err := s.eligibleCompanies(ctx)
	if err != nil {
		return 0, err
	}

	digestRoles := []models.Role{
		models.RoleCompanyAdmin,
		models.RoleDivisionLead,
		models.RoleDepartmentManager,
	}

	sent := 0
	for _, company := range companies {
		if !company.Setting.DigestsEnabled() {
			continue
		}

		summary, err := s.summarizeWeek(ctx, company.ID, workYear, workWeek)
		if err != nil {
			s.logger.Error("Digest summary failed", err, utils.LogFields{"company_id": company.ID})
			continue
		}
		if summary.SubmittedCount+summary.DraftCount+summary.LockedCount == 0 {
			continue
		}

		var managers []models.User
		err = s.db.DB().WithContext(ctx).
			Where("company_id = ? AND is_active = ? AND role IN ?", company.ID, true, digestRoles).
			Find(&managers).Error
		if err != nil {
			s.logger.Error("Digest manager query failed", err, utils.LogFields{"company_id": company.ID})
			continue
		}

		for _, manager := range managers {
			n := Notification{
				Kind:      NotificationWeeklyDigest,
				CompanyID: company.ID,
				UserID:    manager.ID,
				Email:     manager.Email,
				Subject:   "Weekly report digest",
				Payload: models.JSON{
					"work_year":       summary.WorkYear,
					"work_week":       summary.WorkWeek,
					"total_hours":     summary.TotalHours,
					"billable_hours":  summary.BillableHours,
					"submitted_count": summary.SubmittedCount,
					"draft_count":     summary.DraftCount,
					"locked_count":    summary.LockedCount,
					"contributors":    summary.ContributorsCnt,
				},
			}
			if err := s.notifier.Send(ctx, n); err != nil {
				s.logger.Error("Digest delivery failed", err, utils.LogFields{
					"company_id": company.ID,
					"user_id":    manager.ID,
				})
				continue
			}
			sent++
		}
	}
	return sent, nil
}

// summarizeWeek computes the per-company digest numbers for one week.
func (s *NotificationService) summarizeWeek(ctx context.Context, companyID uint, workYear, workWeek int) (*DigestSummary, error) {
	var reports []models.WeeklyReport
	err := s.db.DB().WithContext(ctx).
		Preload("Items").
		Where("company_id = ? AND work_year = ? AND work_week = ?", companyID, workYear, workWeek).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}

	summary := DigestSummary{
		CompanyID: companyID,
		WorkYear:  workYear,
		WorkWeek:  workWeek,
	}
	contributors := map[uint]bool{}
	for _, report := range reports {
		summary.TotalHours += report.TotalHours()
		summary.BillableHours += report.BillableHours()
		contributors[report.UserID] = true
		switch report.Status {
		case models.ReportStatusSubmitted:
			summary.SubmittedCount++
		case models.ReportStatusDraft:
			summary.DraftCount++
		case models.ReportStatusLocked:
			summary.LockedCount++
		}
	}
	summary.ContributorsCnt = len(contributors)
	return &summary, nil
}

// eligibleCompanies loads active, onboarded companies with settings
// preloaded.
func (s *NotificationService) eligibleCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := s.db.DB().WithContext(ctx).
		Preload("Setting").
		Where("status = ? AND onboarded_at IS NOT NULL", models.CompanyStatusActive).
		Find(&companies).Error
	return companies, err
}

// CurrentWeek is the reminder job's default target.
func CurrentWeek() (int, int) {
	return utils.ISOWeek(time.Now().UTC())
}

// DigestWeek is the digest job's default target, offset weeks back from
// now (normally 1, the previous ISO week).
func DigestWeek(offset int) (int, int) {
	return utils.PreviousISOWeek(time.Now().UTC(), offset)
}
