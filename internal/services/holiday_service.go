package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm/clause"

	"github.com/chang180/timesheet-saas-sub001/internal/config"
	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

// holidayRow is one record of the New Taipei City open-data holiday
// dataset.
type holidayRow struct {
	Date            string `json:"date"`
	Year            string `json:"year"`
	Name            string `json:"name"`
	IsHoliday       string `json:"isholiday"`
	HolidayCategory string `json:"holidaycategory"`
	Description     string `json:"description"`
}

// SyncResult reports a holiday sync outcome. A failed page stops
// pagination but earlier pages stay persisted, so Synced can be
// non-zero alongside Errors.
type SyncResult struct {
	Synced int      `json:"synced"`
	Errors []string `json:"errors"`
}

type HolidayService struct {
	db     database.Database
	cache  database.RedisClient
	cfg    config.HolidayConfig
	client *http.Client
	logger utils.Logger
}

// NewHolidayService builds the service. cache may be nil; year caching is
// then skipped and every EnsureYear goes to storage.
func NewHolidayService(db database.Database, cache database.RedisClient, cfg config.HolidayConfig, logger utils.Logger) *HolidayService {
	return &HolidayService{
		db:     db,
		cache:  cache,
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		logger: logger,
	}
}

func yearCacheKey(year int) string {
	return fmt.Sprintf("holidays:year:%d", year)
}

// EnsureYear guarantees the year's holidays are present before a read.
// Cache hit wins; otherwise storage is checked for the anchor national
// holidays (Jan 1, Feb 28, Oct 10), and a fresh sync runs when any
// anchor is missing.
func (s *HolidayService) EnsureYear(ctx context.Context, year int) error {
	if s.cache != nil {
		if _, err := s.cache.Get(ctx, yearCacheKey(year)); err == nil {
			return nil
		}
	}

	if s.anchorsPresent(ctx, year) {
		s.markYearCached(ctx, year)
		return nil
	}

	result := s.SyncYear(ctx, year)
	if len(result.Errors) > 0 {
		s.logger.Warn("Holiday sync finished with errors", utils.LogFields{
			"year":   year,
			"synced": result.Synced,
			"errors": result.Errors,
		})
	}
	if result.Synced > 0 || s.anchorsPresent(ctx, year) {
		s.markYearCached(ctx, year)
		return nil
	}
	return fmt.Errorf("holiday data for %d unavailable", year)
}

func (s *HolidayService) anchorsPresent(ctx context.Context, year int) bool {
	anchors := []time.Time{
		time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, 2, 28, 0, 0, 0, 0, time.UTC),
		time.Date(year, 10, 10, 0, 0, 0, 0, time.UTC),
	}
	// The anchors must be stored as national holidays, not merely as
	// rows that happen to share the date.
	var count int64
	err := s.db.DB().WithContext(ctx).Model(&models.Holiday{}).
		Where("date IN ? AND is_holiday = ? AND category = ?", anchors, true, models.HolidayCategoryNational).
		Count(&count).Error
	return err == nil && count == int64(len(anchors))
}

func (s *HolidayService) markYearCached(ctx context.Context, year int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, yearCacheKey(year), "1", s.cfg.CacheTTL); err != nil {
		s.logger.Warn("Failed to set holiday year cache", utils.LogFields{"year": year, "error": err.Error()})
	}
}

// SyncYear pulls the external dataset filtered to one year and upserts
// it. year 0 syncs everything the endpoint returns.
func (s *HolidayService) SyncYear(ctx context.Context, year int) SyncResult {
	result := SyncResult{Errors: []string{}}
	page := 0
	size := s.cfg.PageSize
	if size <= 0 {
		size = 500
	}

	for {
		rows, err := s.fetchPage(ctx, page, size)
		if err != nil {
			// Keep what earlier pages persisted.
			result.Errors = append(result.Errors, fmt.Sprintf("page %d: %v", page, err))
			return result
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			holiday, err := transformRow(row)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %q: %v", row.Date, err))
				continue
			}
			if year != 0 && holiday.Date.Year() != year {
				continue
			}
			if err := s.upsert(ctx, holiday); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("upsert %s: %v", holiday.Date.Format("2006-01-02"), err))
				continue
			}
			result.Synced++
		}

		if len(rows) < size {
			break
		}
		page++
	}
	return result
}

// fetchPage GETs one page with exponential backoff on transient
// failures.
func (s *HolidayService) fetchPage(ctx context.Context, page, size int) ([]holidayRow, error) {
	endpoint, err := url.Parse(s.cfg.EndpointURL)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	endpoint.RawQuery = q.Encode()

	var rows []holidayRow
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("upstream returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("upstream returned %d", resp.StatusCode))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &rows); err != nil {
			return backoff.Permanent(fmt.Errorf("decode page: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.cfg.MaxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *HolidayService) upsert(ctx context.Context, holiday *models.Holiday) error {
	return s.db.DB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "is_holiday", "category",
			"is_workday_override", "iso_week_year", "iso_week", "updated_at",
		}),
	}).Create(holiday).Error
}

// transformRow parses a dataset row into a Holiday. Dates arrive as
// YYYYMMDD; the is-holiday marker is the literal "是".
func transformRow(row holidayRow) (*models.Holiday, error) {
	date, err := time.ParseInLocation("20060102", strings.TrimSpace(row.Date), time.UTC)
	if err != nil {
		return nil, fmt.Errorf("bad date: %w", err)
	}

	isHoliday := strings.TrimSpace(row.IsHoliday) == "是"
	category := classifyCategory(row.HolidayCategory, isHoliday)
	weekYear, week := date.ISOWeek()

	return &models.Holiday{
		Date:              date,
		Name:              strings.TrimSpace(row.Name),
		Description:       strings.TrimSpace(row.Description),
		IsHoliday:         isHoliday,
		Category:          category,
		IsWorkdayOverride: category == models.HolidayCategoryMakeupWorkday,
		ISOWeekYear:       weekYear,
		ISOWeek:           week,
	}, nil
}

// classifyCategory maps the dataset's free-text Chinese category into the
// closed enum.
func classifyCategory(raw string, isHoliday bool) models.HolidayCategory {
	text := strings.TrimSpace(raw)
	switch {
	case strings.Contains(text, "補行上班"), strings.Contains(text, "補班"):
		return models.HolidayCategoryMakeupWorkday
	case strings.Contains(text, "放假之紀念日"), strings.Contains(text, "民俗節日"), strings.Contains(text, "國定"):
		return models.HolidayCategoryNational
	case strings.Contains(text, "補假"), strings.Contains(text, "調整放假"):
		return models.HolidayCategoryWeekdayOff
	case strings.Contains(text, "星期六"), strings.Contains(text, "星期日"), strings.Contains(text, "例假日"):
		return models.HolidayCategoryWeekend
	}
	if isHoliday {
		return models.HolidayCategoryWeekdayOff
	}
	return models.HolidayCategoryWeekend
}

// WeekHolidays returns the holidays falling inside one ISO week, after
// making sure the year is synced.
func (s *HolidayService) WeekHolidays(ctx context.Context, year, week int) ([]models.Holiday, error) {
	if !utils.ValidISOWeek(year, week) {
		return nil, errors.New("invalid ISO week")
	}
	if err := s.EnsureYear(ctx, year); err != nil {
		return nil, err
	}

	var holidays []models.Holiday
	err := s.db.DB().WithContext(ctx).
		Where("iso_week_year = ? AND iso_week = ?", year, week).
		Order("date").
		Find(&holidays).Error
	return holidays, err
}

// YearHolidays lists a calendar year, syncing first if needed.
func (s *HolidayService) YearHolidays(ctx context.Context, year int) ([]models.Holiday, error) {
	if err := s.EnsureYear(ctx, year); err != nil {
		return nil, err
	}

	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC)

	var holidays []models.Holiday
	err := s.db.DB().WithContext(ctx).
		Where("date >= ? AND date < ?", start, end).
		Order("date").
		Find(&holidays).Error
	return holidays, err
}
