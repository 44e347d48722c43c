package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/policy"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
)

// exportHeader is the shared column layout of both export formats.
var exportHeader = []string{
	"Member", "Email", "Division", "Department", "Team",
	"Year", "Week", "Status",
	"Item Title", "Content", "Actual Hours", "Planned Hours",
	"Billable", "Issue Reference", "Tags", "Item Type",
}

// ExportService flattens reports plus items into tabular rows and
// renders them as CSV or XLSX. Both formats come from the same row
// transform.
type ExportService struct {
	db database.Database
}

func NewExportService(db database.Database) *ExportService {
	return &ExportService{db: db}
}

// ExportFilter selects which reports to flatten.
type ExportFilter struct {
	UserID       *uint
	DivisionID   *uint
	DepartmentID *uint
	TeamID       *uint
	Status       models.ReportStatus
	WorkYear     int
	WorkWeek     int
}

// Rows loads matching reports and flattens them, one output row per
// item. A report without items still contributes a single row with
// empty item columns.
func (s *ExportService) Rows(ctx context.Context, actor *models.User, filter ExportFilter) ([][]string, error) {
	tc := tenant.FromContext(ctx)
	if tc == nil || !policy.CanExportReports(actor, tc.CompanyID, nil) {
		return nil, ErrForbidden
	}

	q := tenant.Scoped(s.db.DB().WithContext(ctx).Model(&models.WeeklyReport{}), ctx)
	// A lead without a unit assignment is a misconfiguration; deny
	// rather than let a NULL comparison silently match nothing.
	switch actor.Role {
	case models.RoleDivisionLead:
		if actor.DivisionID == nil {
			return nil, ErrForbidden
		}
		q = q.Where("division_id = ?", *actor.DivisionID)
	case models.RoleDepartmentManager:
		if actor.DepartmentID == nil {
			return nil, ErrForbidden
		}
		q = q.Where("department_id = ?", *actor.DepartmentID)
	case models.RoleTeamLead:
		if actor.TeamID == nil {
			return nil, ErrForbidden
		}
		q = q.Where("team_id = ?", *actor.TeamID)
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

	var reports []models.WeeklyReport
	err := q.Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Order("work_year, work_week, user_id").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}

	names, err := s.unitNames(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(reports))
	for _, report := range reports {
		rows = append(rows, flattenReport(report, names)...)
	}
	return rows, nil
}

// ExportCSV renders the rows as CSV with the standard header.
func (s *ExportService) ExportCSV(ctx context.Context, actor *models.User, filter ExportFilter) ([]byte, error) {
	rows, err := s.Rows(ctx, actor, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportXLSX renders the rows as a single-sheet workbook.
func (s *ExportService) ExportXLSX(ctx context.Context, actor *models.User, filter ExportFilter) ([]byte, error) {
	rows, err := s.Rows(ctx, actor, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Reports"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	writeRow := func(rowNum int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		return f.SetSheetRow(sheet, cell, &cells)
	}

	if err := writeRow(1, exportHeader); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := writeRow(i+2, row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unitNames maps unit ids to display names for the flattened rows.
type unitNameIndex struct {
	divisions   map[uint]string
	departments map[uint]string
	teams       map[uint]string
}

func (s *ExportService) unitNames(ctx context.Context) (*unitNameIndex, error) {
	idx := &unitNameIndex{
		divisions:   map[uint]string{},
		departments: map[uint]string{},
		teams:       map[uint]string{},
	}

	var divisions []models.Division
	if err := tenant.Scoped(s.db.DB().WithContext(ctx), ctx).Find(&divisions).Error; err != nil {
		return nil, err
	}
	for _, d := range divisions {
		idx.divisions[d.ID] = d.Name
	}

	var departments []models.Department
	if err := tenant.Scoped(s.db.DB().WithContext(ctx), ctx).Find(&departments).Error; err != nil {
		return nil, err
	}
	for _, d := range departments {
		idx.departments[d.ID] = d.Name
	}

	var teams []models.Team
	if err := tenant.Scoped(s.db.DB().WithContext(ctx), ctx).Find(&teams).Error; err != nil {
		return nil, err
	}
	for _, t := range teams {
		idx.teams[t.ID] = t.Name
	}

	return idx, nil
}

func flattenReport(report models.WeeklyReport, names *unitNameIndex) [][]string {
	memberName := ""
	memberEmail := ""
	if report.User != nil {
		memberName = report.User.FullName()
		memberEmail = report.User.Email
	}

	base := []string{
		memberName,
		memberEmail,
		lookupName(names.divisions, report.DivisionID),
		lookupName(names.departments, report.DepartmentID),
		lookupName(names.teams, report.TeamID),
		strconv.Itoa(report.WorkYear),
		strconv.Itoa(report.WorkWeek),
		string(report.Status),
	}

	if len(report.Items) == 0 {
		row := append(append([]string{}, base...),
			"", "", "", "", "", "", "", "")
		return [][]string{row}
	}

	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		row := append(append([]string{}, base...),
			item.Title,
			item.Content,
			formatHours(item.HoursSpent),
			formatHours(item.PlannedHours),
			strconv.FormatBool(item.IsBillable),
			item.IssueReference,
			strings.Join(item.Tags, ", "),
			string(item.Type),
		)
		rows = append(rows, row)
	}
	return rows
}

func lookupName(names map[uint]string, id *uint) string {
	if id == nil {
		return ""
	}
	return names[*id]
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.2f", h)
}
