package model

import "time"

type Recurrence string

const RECURRENCE_NONE Recurrence = "NONE"
const RECURRENCE_DAILY Recurrence = "DAILY"
const RECURRENCE_WEEKLY Recurrence = "WEEKLY"
const RECURRENCE_MONTHLY Recurrence = "MONTHLY"
const RECURRENCE_YEARLY Recurrence = "YEARLY"

type DayType string

const DAY_TYPE_HOLIDAY DayType = "HOLIDAY"
const DAY_TYPE_RUNDAY DayType = "RUNDAY"

const DATE_LAYOUT string = "2006-01-02"

// CalendarDay is a per-date override on a calendar. A HOLIDAY entry
// excludes the date, a RUNDAY entry forces it. (date, type) is unique
// within one calendar.
type CalendarDay struct {
	Date time.Time `json:"date"`
	Type DayType   `json:"type"`
	Note string    `json:"note,omitempty"`
}

type Calendar struct {
	Id             int64         `json:"id"`
	Name           string        `json:"name"`
	StartDate      time.Time     `json:"startDate"`
	EndDate        time.Time     `json:"endDate"`
	Recurrence     Recurrence    `json:"recurrence"`
	CronExpression string        `json:"cronExpression,omitempty"`
	Timezone       string        `json:"timezone,omitempty"`
	Region         string        `json:"region,omitempty"`
	OffsetDays     int           `json:"offsetDays"`
	Active         bool          `json:"active"`
	Days           []CalendarDay `json:"days,omitempty"`
}

// DateOnly truncates a timestamp to its calendar day in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func DateKey(t time.Time) string {
	return t.Format(DATE_LAYOUT)
}

func (c *Calendar) HasDay(date time.Time, dayType DayType) bool {
	key := DateKey(date)
	for _, d := range c.Days {
		if d.Type == dayType && DateKey(d.Date) == key {
			return true
		}
	}
	return false
}

func (c *Calendar) CountDays(dayType DayType) int {
	count := 0
	for _, d := range c.Days {
		if d.Type == dayType {
			count++
		}
	}
	return count
}
