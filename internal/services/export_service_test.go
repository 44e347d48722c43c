package services

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chang180/timesheet-saas-sub001/internal/models"
)

func TestExportCSVFlattensItems(t *testing.T) {
	svc, fx := newReportService(t)
	exporter := NewExportService(fx.db)

	_, err := svc.Create(fx.ctx, fx.author, CreateReportInput{
		WorkYear: 2026,
		WorkWeek: 5,
		Items: []ReportItemInput{
			{Type: models.ItemTypeCurrentWeek, Title: "Built feature", HoursSpent: 6.5, IsBillable: true, Tags: models.StringList{"api", "backend"}},
			{Type: models.ItemTypeNextWeek, Title: "Plan rollout", PlannedHours: 4},
		},
	})
	require.NoError(t, err)

	admin := seedUser(t, fx.db, 1, "admin@acme.test", models.RoleCompanyAdmin, nil)

	out, err := exporter.ExportCSV(fx.ctx, admin, ExportFilter{WorkYear: 2026, WorkWeek: 5})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + one row per item
	assert.Equal(t, exportHeader, records[0])

	first := records[1]
	assert.Equal(t, "bob@acme.test", first[1])
	assert.Equal(t, "Core", first[4])
	assert.Equal(t, "2026", first[5])
	assert.Equal(t, "Built feature", first[8])
	assert.Equal(t, "6.50", first[10])
	assert.Equal(t, "true", first[12])
	assert.Equal(t, "api, backend", first[14])
	assert.Equal(t, string(models.ItemTypeCurrentWeek), first[15])

	second := records[2]
	assert.Equal(t, "Plan rollout", second[8])
	assert.Equal(t, "4.00", second[11])
	assert.Equal(t, string(models.ItemTypeNextWeek), second[15])
}

func TestExportDeniedForMembers(t *testing.T) {
	svc, fx := newReportService(t)
	exporter := NewExportService(fx.db)

	_, err := svc.Create(fx.ctx, fx.author, CreateReportInput{WorkYear: 2026, WorkWeek: 5})
	require.NoError(t, err)

	_, err = exporter.ExportCSV(fx.ctx, fx.author, ExportFilter{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestExportScopedToLeadTeam(t *testing.T) {
	svc, fx := newReportService(t)
	exporter := NewExportService(fx.db)

	otherTeam := uint(6)
	team := models.Team{CompanyID: 1, Name: "Other", Slug: "other"}
	team.ID = otherTeam
	require.NoError(t, fx.db.DB().Create(&team).Error)
	outsider := seedUser(t, fx.db, 1, "outsider@acme.test", models.RoleMember, &otherTeam)

	_, err := svc.Create(fx.ctx, fx.author, CreateReportInput{
		WorkYear: 2026, WorkWeek: 5,
		Items: []ReportItemInput{{Type: models.ItemTypeCurrentWeek, Title: "Mine", HoursSpent: 1}},
	})
	require.NoError(t, err)
	_, err = svc.Create(fx.ctx, outsider, CreateReportInput{
		WorkYear: 2026, WorkWeek: 5,
		Items: []ReportItemInput{{Type: models.ItemTypeCurrentWeek, Title: "Theirs", HoursSpent: 1}},
	})
	require.NoError(t, err)

	rows, err := exporter.Rows(fx.ctx, fx.lead, ExportFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mine", rows[0][8])
}

func TestExportDeniedForLeadWithoutUnit(t *testing.T) {
	svc, fx := newReportService(t)
	exporter := NewExportService(fx.db)

	_, err := svc.Create(fx.ctx, fx.author, CreateReportInput{WorkYear: 2026, WorkWeek: 5})
	require.NoError(t, err)

	// A lead with no team assignment must be denied, not silently
	// given an empty export.
	unassigned := seedUser(t, fx.db, 1, "floating@acme.test", models.RoleTeamLead, nil)
	_, err = exporter.Rows(fx.ctx, unassigned, ExportFilter{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestExportXLSXWritesWorkbook(t *testing.T) {
	svc, fx := newReportService(t)
	exporter := NewExportService(fx.db)

	_, err := svc.Create(fx.ctx, fx.author, CreateReportInput{
		WorkYear: 2026, WorkWeek: 5,
		Items: []ReportItemInput{{Type: models.ItemTypeCurrentWeek, Title: "Work", HoursSpent: 2}},
	})
	require.NoError(t, err)

	admin := seedUser(t, fx.db, 1, "admin@acme.test", models.RoleCompanyAdmin, nil)
	out, err := exporter.ExportXLSX(fx.ctx, admin, ExportFilter{})
	require.NoError(t, err)
	// XLSX files are zip archives.
	require.Greater(t, len(out), 4)
	assert.Equal(t, "PK", string(out[:2]))
}
