package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

type HolidayHandler struct {
	holidays *services.HolidayService
}

func NewHolidayHandler(holidays *services.HolidayService) *HolidayHandler {
	return &HolidayHandler{holidays: holidays}
}

// Week returns the holidays overlapping one ISO week, syncing the year
// from the upstream calendar on first touch.
func (h *HolidayHandler) Week(c *gin.Context) {
	year := queryInt(c, "work_year")
	week := queryInt(c, "work_week")
	if year == 0 || week == 0 {
		year, week = utils.ISOWeek(time.Now().UTC())
	}
	if !utils.ValidISOWeek(year, week) {
		utils.SendValidationError(c, []utils.ErrorDetail{{Field: "work_week", Message: "invalid ISO week"}})
		return
	}

	holidays, err := h.holidays.WeekHolidays(c.Request.Context(), year, week)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, gin.H{
		"work_year": year,
		"work_week": week,
		"holidays":  holidays,
	})
}

func (h *HolidayHandler) Year(c *gin.Context) {
	year := queryInt(c, "year")
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	if err := h.holidays.EnsureYear(c.Request.Context(), year); err != nil {
		respondServiceError(c, err)
		return
	}
	holidays, err := h.holidays.YearHolidays(c.Request.Context(), year)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SendSuccessResponse(c, gin.H{"year": year, "holidays": holidays})
}

// Sync forces a refresh of one calendar year. Partial failures are
// reported in the result, not as an HTTP error.
func (h *HolidayHandler) Sync(c *gin.Context) {
	year := queryInt(c, "year")
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	result := h.holidays.SyncYear(c.Request.Context(), year)
	utils.SendSuccessResponse(c, gin.H{
		"year":   year,
		"synced": result.Synced,
		"errors": result.Errors,
	})
}
