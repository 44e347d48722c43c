package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
)

type captureNotifier struct {
	sent []Notification
}

func (c *captureNotifier) Send(_ context.Context, n Notification) error {
	c.sent = append(c.sent, n)
	return nil
}

func (c *captureNotifier) byKind(kind string) []Notification {
	var out []Notification
	for _, n := range c.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func seedReport(t *testing.T, db database.Database, companyID, userID uint, year, week int, status models.ReportStatus, hours float64) {
	t.Helper()

	report := models.WeeklyReport{
		UUID:      uuid.New().String(),
		CompanyID: companyID,
		UserID:    userID,
		WorkYear:  year,
		WorkWeek:  week,
		Status:    status,
		Items: []models.WeeklyReportItem{
			{Type: models.ItemTypeCurrentWeek, Title: "Work", HoursSpent: hours},
		},
	}
	require.NoError(t, db.DB().Create(&report).Error)
}

func TestRemindersOnlyTargetUsersWithoutSubmission(t *testing.T) {
	db := openTestDB(t)
	company := seedCompany(t, db, 1, "acme")
	onboard(t, db, company.ID)

	bob := seedUser(t, db, 1, "bob@acme.test", models.RoleMember, nil)
	alice := seedUser(t, db, 1, "alice@acme.test", models.RoleMember, nil)
	seedReport(t, db, 1, alice.ID, 2026, 5, models.ReportStatusSubmitted, 8)

	notifier := &captureNotifier{}
	svc := NewNotificationService(db, notifier, testLogger(t))

	sent, err := svc.RunReminders(context.Background(), 2026, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	reminders := notifier.byKind(NotificationWeeklyReminder)
	require.Len(t, reminders, 1)
	assert.Equal(t, bob.ID, reminders[0].UserID)
	assert.Equal(t, "bob@acme.test", reminders[0].Email)
}

func TestRemindersSkipNotOnboardedCompanies(t *testing.T) {
	db := openTestDB(t)
	seedCompany(t, db, 1, "acme") // active but never onboarded
	seedUser(t, db, 1, "bob@acme.test", models.RoleMember, nil)

	notifier := &captureNotifier{}
	svc := NewNotificationService(db, notifier, testLogger(t))

	sent, err := svc.RunReminders(context.Background(), 2026, 5)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, notifier.sent)
}

func TestRemindersHonorPreference(t *testing.T) {
	db := openTestDB(t)
	company := seedCompany(t, db, 1, "acme")
	onboard(t, db, company.ID)
	seedUser(t, db, 1, "bob@acme.test", models.RoleMember, nil)

	require.NoError(t, db.DB().Model(&models.CompanySetting{}).
		Where("company_id = ?", company.ID).
		Update("notification_preferences", models.JSON{"weekly_reminder": false}).Error)

	notifier := &captureNotifier{}
	svc := NewNotificationService(db, notifier, testLogger(t))

	sent, err := svc.RunReminders(context.Background(), 2026, 5)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestDigestSkipsCompaniesWithoutReports(t *testing.T) {
	db := openTestDB(t)

	quiet := seedCompany(t, db, 1, "quiet")
	onboard(t, db, quiet.ID)
	seedUser(t, db, 1, "admin@quiet.test", models.RoleCompanyAdmin, nil)

	busy := seedCompany(t, db, 2, "busy")
	onboard(t, db, busy.ID)
	admin := seedUser(t, db, 2, "admin@busy.test", models.RoleCompanyAdmin, nil)
	lead := seedUser(t, db, 2, "lead@busy.test", models.RoleDivisionLead, nil)
	seedUser(t, db, 2, "teamlead@busy.test", models.RoleTeamLead, nil)
	member := seedUser(t, db, 2, "member@busy.test", models.RoleMember, nil)
	seedReport(t, db, 2, member.ID, 2026, 4, models.ReportStatusSubmitted, 6)

	notifier := &captureNotifier{}
	svc := NewNotificationService(db, notifier, testLogger(t))

	sent, err := svc.RunDigest(context.Background(), 2026, 4)
	require.NoError(t, err)

	// Exactly one digest per manager-role user of the busy company.
	// Team leads and members get nothing; the quiet company sends nothing.
	assert.Equal(t, 2, sent)
	digests := notifier.byKind(NotificationWeeklyDigest)
	require.Len(t, digests, 2)

	recipients := map[uint]bool{}
	for _, d := range digests {
		assert.Equal(t, busy.ID, d.CompanyID)
		recipients[d.UserID] = true
	}
	assert.True(t, recipients[admin.ID])
	assert.True(t, recipients[lead.ID])
}

func TestDigestSummaryNumbers(t *testing.T) {
	db := openTestDB(t)
	company := seedCompany(t, db, 1, "acme")
	onboard(t, db, company.ID)

	a := seedUser(t, db, 1, "a@acme.test", models.RoleMember, nil)
	b := seedUser(t, db, 1, "b@acme.test", models.RoleMember, nil)
	seedReport(t, db, 1, a.ID, 2026, 4, models.ReportStatusSubmitted, 8)
	seedReport(t, db, 1, b.ID, 2026, 4, models.ReportStatusDraft, 3)

	svc := NewNotificationService(db, &captureNotifier{}, testLogger(t))
	summary, err := svc.summarizeWeek(context.Background(), 1, 2026, 4)
	require.NoError(t, err)

	assert.Equal(t, 11.0, summary.TotalHours)
	assert.Equal(t, 1, summary.SubmittedCount)
	assert.Equal(t, 1, summary.DraftCount)
	assert.Equal(t, 2, summary.ContributorsCnt)
}
