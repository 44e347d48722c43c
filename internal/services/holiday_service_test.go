package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chang180/timesheet-saas-sub001/internal/config"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
)

func newHolidayService(t *testing.T, endpoint string, pageSize int) *HolidayService {
	t.Helper()

	cfg := config.HolidayConfig{
		EndpointURL: endpoint,
		PageSize:    pageSize,
		CacheTTL:    time.Hour,
		MaxRetries:  0,
		HTTPTimeout: 2 * time.Second,
	}
	return NewHolidayService(openTestDB(t), nil, cfg, testLogger(t))
}

func TestTransformRow(t *testing.T) {
	holiday, err := transformRow(holidayRow{
		Date:            "20260101",
		Name:            "中華民國開國紀念日",
		IsHoliday:       "是",
		HolidayCategory: "放假之紀念日及節日",
	})
	require.NoError(t, err)

	assert.Equal(t, 2026, holiday.Date.Year())
	assert.True(t, holiday.IsHoliday)
	assert.Equal(t, models.HolidayCategoryNational, holiday.Category)
	assert.False(t, holiday.IsWorkdayOverride)

	// Jan 1 2026 falls in ISO week 2026-W01.
	assert.Equal(t, 2026, holiday.ISOWeekYear)
	assert.Equal(t, 1, holiday.ISOWeek)
}

func TestTransformRowBadDate(t *testing.T) {
	_, err := transformRow(holidayRow{Date: "not-a-date"})
	require.Error(t, err)
}

func TestClassifyCategory(t *testing.T) {
	cases := []struct {
		raw       string
		isHoliday bool
		want      models.HolidayCategory
	}{
		{"放假之紀念日及節日", true, models.HolidayCategoryNational},
		{"民俗節日", true, models.HolidayCategoryNational},
		{"補行上班日", false, models.HolidayCategoryMakeupWorkday},
		{"補假", true, models.HolidayCategoryWeekdayOff},
		{"調整放假日", true, models.HolidayCategoryWeekdayOff},
		{"星期六、星期日", true, models.HolidayCategoryWeekend},
		{"", true, models.HolidayCategoryWeekdayOff},
		{"", false, models.HolidayCategoryWeekend},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyCategory(tc.raw, tc.isHoliday), "category %q", tc.raw)
	}
}

func TestSyncUpsertByDate(t *testing.T) {
	svc := newHolidayService(t, "http://unused.invalid", 10)
	ctx := context.Background()

	first, err := transformRow(holidayRow{Date: "20261010", Name: "First Name", IsHoliday: "是", HolidayCategory: "放假之紀念日及節日"})
	require.NoError(t, err)
	require.NoError(t, svc.upsert(ctx, first))

	second, err := transformRow(holidayRow{Date: "20261010", Name: "Second Name", IsHoliday: "是", HolidayCategory: "放假之紀念日及節日"})
	require.NoError(t, err)
	require.NoError(t, svc.upsert(ctx, second))

	var holidays []models.Holiday
	require.NoError(t, svc.db.DB().Find(&holidays).Error)
	require.Len(t, holidays, 1)
	assert.Equal(t, "Second Name", holidays[0].Name)
}

func TestSyncYearPaginatesAndFilters(t *testing.T) {
	pages := [][]holidayRow{
		{
			{Date: "20260101", Name: "New Year", IsHoliday: "是", HolidayCategory: "放假之紀念日及節日"},
			{Date: "20250101", Name: "Old Year", IsHoliday: "是", HolidayCategory: "放假之紀念日及節日"},
		},
		{
			{Date: "20260228", Name: "Peace Memorial Day", IsHoliday: "是", HolidayCategory: "放假之紀念日及節日"},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page >= len(pages) {
			_ = json.NewEncoder(w).Encode([]holidayRow{})
			return
		}
		_ = json.NewEncoder(w).Encode(pages[page])
	}))
	defer server.Close()

	svc := newHolidayService(t, server.URL, 2)
	result := svc.SyncYear(context.Background(), 2026)

	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.Synced) // the 2025 row is filtered out

	var holidays []models.Holiday
	require.NoError(t, svc.db.DB().Order("date").Find(&holidays).Error)
	require.Len(t, holidays, 2)
	assert.Equal(t, "New Year", holidays[0].Name)
}

func TestSyncYearPartialFailureKeepsEarlierPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 0 {
			_ = json.NewEncoder(w).Encode([]holidayRow{
				{Date: "20260101", Name: "New Year", IsHoliday: "是", HolidayCategory: "放假之紀念日及節日"},
				{Date: "20260102", Name: "Extra", IsHoliday: "是", HolidayCategory: "補假"},
			})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	svc := newHolidayService(t, server.URL, 2)
	result := svc.SyncYear(context.Background(), 2026)

	assert.Equal(t, 2, result.Synced)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "page 1")

	var count int64
	require.NoError(t, svc.db.DB().Model(&models.Holiday{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestEnsureYearSyncsWhenAnchorsMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page > 0 {
			_ = json.NewEncoder(w).Encode([]holidayRow{})
			return
		}
		_ = json.NewEncoder(w).Encode([]holidayRow{
			{Date: "20260101", Name: "New Year", IsHoliday: "是", HolidayCategory: "放假之紀念日及節日"},
			{Date: "20260228", Name: "Peace Memorial Day", IsHoliday: "是", HolidayCategory: "放假之紀念日及節日"},
			{Date: "20261010", Name: "National Day", IsHoliday: "是", HolidayCategory: "放假之紀念日及節日"},
		})
	}))
	defer server.Close()

	svc := newHolidayService(t, server.URL, 500)
	require.NoError(t, svc.EnsureYear(context.Background(), 2026))

	holidays, err := svc.YearHolidays(context.Background(), 2026)
	require.NoError(t, err)
	assert.Len(t, holidays, 3)
}

func TestEnsureYearRejectsStaleAnchorRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page > 0 {
			_ = json.NewEncoder(w).Encode([]holidayRow{})
			return
		}
		_ = json.NewEncoder(w).Encode([]holidayRow{
			{Date: "20260101", Name: "New Year", IsHoliday: "是", HolidayCategory: "放假之紀念日及節日"},
			{Date: "20260228", Name: "Peace Memorial Day", IsHoliday: "是", HolidayCategory: "放假之紀念日及節日"},
			{Date: "20261010", Name: "National Day", IsHoliday: "是", HolidayCategory: "放假之紀念日及節日"},
		})
	}))
	defer server.Close()

	svc := newHolidayService(t, server.URL, 500)

	// Rows on the anchor dates that are not national holidays must not
	// satisfy the sanity check.
	for _, date := range []string{"2026-01-01", "2026-02-28", "2026-10-10"} {
		d, err := time.Parse("2006-01-02", date)
		require.NoError(t, err)
		year, week := d.ISOWeek()
		require.NoError(t, svc.db.DB().Create(&models.Holiday{
			Date: d, Name: "stale", IsHoliday: false,
			Category: models.HolidayCategoryWeekend, ISOWeekYear: year, ISOWeek: week,
		}).Error)
	}

	require.NoError(t, svc.EnsureYear(context.Background(), 2026))

	var anchor models.Holiday
	require.NoError(t, svc.db.DB().
		Where("date = ?", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).
		First(&anchor).Error)
	assert.True(t, anchor.IsHoliday)
	assert.Equal(t, models.HolidayCategoryNational, anchor.Category)
	assert.Equal(t, "New Year", anchor.Name)
}
