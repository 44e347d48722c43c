package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestISOWeekStart(t *testing.T) {
	// 2026-W05 starts Monday 2026-01-26.
	start := ISOWeekStart(2026, 5)
	assert.Equal(t, time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Monday, start.Weekday())

	y, w := start.ISOWeek()
	assert.Equal(t, 2026, y)
	assert.Equal(t, 5, w)

	// Week 1 of 2021 starts in the previous calendar year.
	start = ISOWeekStart(2021, 1)
	assert.Equal(t, time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), start)
}

func TestPreviousISOWeek(t *testing.T) {
	// Thursday 2026-01-29 is in 2026-W05.
	now := time.Date(2026, 1, 29, 12, 0, 0, 0, time.UTC)

	y, w := PreviousISOWeek(now, 1)
	assert.Equal(t, 2026, y)
	assert.Equal(t, 4, w)

	// Crossing the year boundary lands in the previous week-year.
	now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	y, w = PreviousISOWeek(now, 1)
	assert.Equal(t, 2025, y)
	assert.Equal(t, 52, w)
}

func TestValidISOWeek(t *testing.T) {
	assert.True(t, ValidISOWeek(2026, 1))
	assert.True(t, ValidISOWeek(2026, 52))
	assert.False(t, ValidISOWeek(2026, 0))
	assert.False(t, ValidISOWeek(2026, 54))

	// 2020 is a long ISO year with 53 weeks, 2026 is not.
	assert.True(t, ValidISOWeek(2020, 53))
	assert.False(t, ValidISOWeek(2026, 53))
}
