package models

import "time"

type HolidayCategory string

const (
	HolidayCategoryNational      HolidayCategory = "national"
	HolidayCategoryWeekdayOff    HolidayCategory = "weekday_off"
	HolidayCategoryMakeupWorkday HolidayCategory = "makeup_workday"
	HolidayCategoryWeekend       HolidayCategory = "weekend"
)

// Holiday is global reference data, never tenant-scoped. ISO week fields are
// precomputed at sync time for fast weekly lookups.
type Holiday struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Date              time.Time       `gorm:"type:date;uniqueIndex;not null" json:"date"`
	Name              string          `gorm:"type:varchar(255)" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	IsHoliday         bool            `gorm:"default:false" json:"is_holiday"`
	Category          HolidayCategory `gorm:"type:varchar(20);not null" json:"category"`
	IsWorkdayOverride bool            `gorm:"default:false" json:"is_workday_override"`
	ISOWeekYear       int             `gorm:"not null;index:idx_holidays_iso_week" json:"iso_week_year"`
	ISOWeek           int             `gorm:"not null;index:idx_holidays_iso_week" json:"iso_week"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (h *Holiday) TableName() string {
	return "holidays"
}
