package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
)

type reportFixture struct {
	db      database.Database
	company *models.Company
	ctx     context.Context
	author  *models.User
	lead    *models.User
}

func newReportService(t *testing.T) (*ReportService, *reportFixture) {
	t.Helper()

	db := openTestDB(t)
	fx := &reportFixture{db: db}
	fx.company = seedCompany(t, db, 1, "acme")
	fx.ctx = tenantCtx(fx.company)

	teamID := uint(5)
	team := models.Team{CompanyID: 1, Name: "Core", Slug: "core"}
	team.ID = teamID
	require.NoError(t, db.DB().Create(&team).Error)

	fx.author = seedUser(t, db, 1, "bob@acme.test", models.RoleMember, &teamID)
	fx.lead = seedUser(t, db, 1, "lead@acme.test", models.RoleTeamLead, &teamID)

	return NewReportService(db, NewAuditService(db)), fx
}

func TestCreateReportDuplicateWeekRedirects(t *testing.T) {
	svc, fx := newReportService(t)

	first, err := svc.Create(fx.ctx, fx.author, CreateReportInput{WorkYear: 2026, WorkWeek: 5})
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	_, err = svc.Create(fx.ctx, fx.author, CreateReportInput{WorkYear: 2026, WorkWeek: 5})
	var dup *DuplicateWeekError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.ExistingID)
	assert.Equal(t, first.UUID, dup.ExistingUUID)
}

func TestDeleteReportFreesWeekForRecreation(t *testing.T) {
	svc, fx := newReportService(t)

	first, err := svc.Create(fx.ctx, fx.author, CreateReportInput{WorkYear: 2026, WorkWeek: 7})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(fx.ctx, fx.author, first.ID))

	// The unique week index must not be held by the deleted row.
	second, err := svc.Create(fx.ctx, fx.author, CreateReportInput{WorkYear: 2026, WorkWeek: 7})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	var count int64
	fx.db.DB().Unscoped().Model(&models.WeeklyReport{}).
		Where("company_id = ? AND user_id = ?", fx.company.ID, fx.author.ID).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpdateReportReplacesItemSet(t *testing.T) {
	svc, fx := newReportService(t)

	report, err := svc.Create(fx.ctx, fx.author, CreateReportInput{
		WorkYear: 2026,
		WorkWeek: 5,
		Items: []ReportItemInput{
			{Type: models.ItemTypeCurrentWeek, Title: "A", HoursSpent: 2},
			{Type: models.ItemTypeCurrentWeek, Title: "B", HoursSpent: 3},
		},
	})
	require.NoError(t, err)

	updated, err := svc.Update(fx.ctx, fx.author, report.ID, UpdateReportInput{
		Items: []ReportItemInput{
			{Type: models.ItemTypeCurrentWeek, Title: "C", HoursSpent: 4},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "C", updated.Items[0].Title)

	// No residue of A/B in storage either.
	reloaded, err := svc.Get(fx.ctx, fx.author, report.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, "C", reloaded.Items[0].Title)
}

func TestTotalHoursExcludesNextWeekItems(t *testing.T) {
	svc, fx := newReportService(t)

	report, err := svc.Create(fx.ctx, fx.author, CreateReportInput{
		WorkYear: 2026,
		WorkWeek: 5,
		Items: []ReportItemInput{
			{Type: models.ItemTypeCurrentWeek, Title: "Done", HoursSpent: 6},
			{Type: models.ItemTypeNextWeek, Title: "Planned", PlannedHours: 10},
		},
	})
	require.NoError(t, err)

	loaded, err := svc.Get(fx.ctx, fx.author, report.ID)
	require.NoError(t, err)
	assert.Equal(t, 6.0, loaded.TotalHours())
}

func TestReportWorkflowTransitions(t *testing.T) {
	svc, fx := newReportService(t)

	report, err := svc.Create(fx.ctx, fx.author, CreateReportInput{WorkYear: 2026, WorkWeek: 5})
	require.NoError(t, err)

	// Author cannot reopen a draft; there is nothing to reopen.
	_, err = svc.Reopen(fx.ctx, fx.lead, report.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	submitted, err := svc.Submit(fx.ctx, fx.author, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	// Authors never reopen their own submitted report.
	_, err = svc.Reopen(fx.ctx, fx.author, report.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	reopened, err := svc.Reopen(fx.ctx, fx.lead, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDraft, reopened.Status)
	assert.Nil(t, reopened.SubmittedAt)

	// Lock requires submitted.
	_, err = svc.Lock(fx.ctx, fx.lead, report.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Submit(fx.ctx, fx.author, report.ID)
	require.NoError(t, err)
	locked, err := svc.Lock(fx.ctx, fx.lead, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusLocked, locked.Status)
	require.NotNil(t, locked.LockedAt)

	// Locked reports are immutable for every actor.
	_, err = svc.Update(fx.ctx, fx.author, report.ID, UpdateReportInput{})
	assert.ErrorIs(t, err, ErrReportLocked)
	_, err = svc.Update(fx.ctx, fx.lead, report.ID, UpdateReportInput{})
	assert.ErrorIs(t, err, ErrReportLocked)
	_, err = svc.Reopen(fx.ctx, fx.lead, report.ID)
	assert.ErrorIs(t, err, ErrReportLocked)
}

func TestPrefillCarriesNextWeekItemsForward(t *testing.T) {
	svc, fx := newReportService(t)

	_, err := svc.Create(fx.ctx, fx.author, CreateReportInput{
		WorkYear: 2026,
		WorkWeek: 4,
		Items: []ReportItemInput{
			{Type: models.ItemTypeCurrentWeek, Title: "Shipped", HoursSpent: 8},
			{Type: models.ItemTypeNextWeek, Title: "Ship more", PlannedHours: 5, Tags: models.StringList{"release"}},
		},
	})
	require.NoError(t, err)

	items, err := svc.Prefill(fx.ctx, fx.author, 2026, 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ItemTypeCurrentWeek, items[0].Type)
	assert.Equal(t, "Ship more", items[0].Title)
	assert.Equal(t, 5.0, items[0].HoursSpent)
	assert.Equal(t, models.StringList{"release"}, items[0].Tags)
}

func TestPrefillWithoutHistoryIsEmpty(t *testing.T) {
	svc, fx := newReportService(t)

	items, err := svc.Prefill(fx.ctx, fx.author, 2026, 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCrossTeamLeadCannotTouchReport(t *testing.T) {
	svc, fx := newReportService(t)

	otherTeam := uint(6)
	team := models.Team{CompanyID: 1, Name: "Other", Slug: "other"}
	team.ID = otherTeam
	require.NoError(t, fx.db.DB().Create(&team).Error)
	outsider := seedUser(t, fx.db, 1, "outsider@acme.test", models.RoleTeamLead, &otherTeam)

	report, err := svc.Create(fx.ctx, fx.author, CreateReportInput{WorkYear: 2026, WorkWeek: 5})
	require.NoError(t, err)
	_, err = svc.Submit(fx.ctx, fx.author, report.ID)
	require.NoError(t, err)

	_, err = svc.Lock(fx.ctx, outsider, report.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Get(fx.ctx, outsider, report.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
