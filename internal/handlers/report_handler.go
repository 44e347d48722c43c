package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chang180/timesheet-saas-sub001/internal/middleware"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

type ReportHandler struct {
	reports *services.ReportService
	export  *services.ExportService
}

func NewReportHandler(reports *services.ReportService, export *services.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, export: export}
}

func (h *ReportHandler) List(c *gin.Context) {
	user := currentUser(c)
	page, limit := pagination(c)
	filter := services.ReportFilter{
		UserID:       queryUint(c, "user_id"),
		DivisionID:   queryUint(c, "division_id"),
		DepartmentID: queryUint(c, "department_id"),
		TeamID:       queryUint(c, "team_id"),
		Status:       models.ReportStatus(c.Query("status")),
		WorkYear:     queryInt(c, "work_year"),
		WorkWeek:     queryInt(c, "work_week"),
	}

	reports, total, err := h.reports.List(c.Request.Context(), user, filter, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Paginated(c, reports, page, limit, total)
}

// Create opens a draft. A duplicate week is not an error: the response
// is a 303 redirect to the existing report's edit URL.
func (h *ReportHandler) Create(c *gin.Context) {
	user := currentUser(c)
	var req services.CreateReportInput
	if !bindJSON(c, &req) {
		return
	}
	if !utils.ValidISOWeek(req.WorkYear, req.WorkWeek) {
		utils.SendValidationError(c, []utils.ErrorDetail{{Field: "work_week", Message: "invalid ISO week"}})
		return
	}

	report, err := h.reports.Create(c.Request.Context(), user, req)
	if err != nil {
		var dup *services.DuplicateWeekError
		if errors.As(err, &dup) {
			utils.RedirectSeeOther(c, h.editURL(c, dup.ExistingID))
			return
		}
		respondServiceError(c, err)
		return
	}
	utils.SendCreatedResponse(c, report)
}

func (h *ReportHandler) editURL(c *gin.Context, reportID uint) string {
	slug := ""
	if tc := tenant.FromGin(c); tc != nil {
		slug = tc.Slug
	}
	return fmt.Sprintf("/api/v1/%s/reports/%d/edit", slug, reportID)
}

func (h *ReportHandler) Show(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.reports.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, gin.H{
		"report":         report,
		"total_hours":    report.TotalHours(),
		"billable_hours": report.BillableHours(),
	})
}

func (h *ReportHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateReportInput
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.reports.Update(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, report)
}

func (h *ReportHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.reports.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.NoContent(c)
}

func (h *ReportHandler) Submit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.reports.Submit(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	middleware.CountReportTransition("submit")
	utils.SendSuccessResponse(c, report)
}

func (h *ReportHandler) Reopen(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.reports.Reopen(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	middleware.CountReportTransition("reopen")
	utils.SendSuccessResponse(c, report)
}

func (h *ReportHandler) Lock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.reports.Lock(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	middleware.CountReportTransition("lock")
	utils.SendSuccessResponse(c, report)
}

// Prefill suggests current_week items from the author's previous
// report. Advisory only.
func (h *ReportHandler) Prefill(c *gin.Context) {
	user := currentUser(c)
	year := queryInt(c, "work_year")
	week := queryInt(c, "work_week")
	if year == 0 || week == 0 {
		year, week = utils.ISOWeek(time.Now().UTC())
	}

	items, err := h.reports.Prefill(c.Request.Context(), user, year, week)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, gin.H{
		"work_year": year,
		"work_week": week,
		"items":     items,
	})
}

// Export streams the filtered reports as CSV or XLSX.
func (h *ReportHandler) Export(c *gin.Context) {
	user := currentUser(c)
	filter := services.ExportFilter{
		UserID:       queryUint(c, "user_id"),
		DivisionID:   queryUint(c, "division_id"),
		DepartmentID: queryUint(c, "department_id"),
		TeamID:       queryUint(c, "team_id"),
		Status:       models.ReportStatus(c.Query("status")),
		WorkYear:     queryInt(c, "work_year"),
		WorkWeek:     queryInt(c, "work_week"),
	}

	format := c.DefaultQuery("format", "csv")
	filename := fmt.Sprintf("weekly-reports-%s", time.Now().UTC().Format("20060102"))

	switch format {
	case "xlsx":
		out, err := h.export.ExportXLSX(c.Request.Context(), user, filter)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, filename))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
	case "csv":
		out, err := h.export.ExportCSV(c.Request.Context(), user, filter)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", out)
	default:
		utils.SendValidationError(c, []utils.ErrorDetail{{Field: "format", Message: "format must be csv or xlsx"}})
	}
}
