package calendar

import (
	"time"

	"github.com/docuflow/docuflow/model"
)

// ValidityEngine answers whether a calendar allows work on a given
// date. Pure date logic, no storage access.
type ValidityEngine struct{}

func NewValidityEngine() *ValidityEngine {
	return &ValidityEngine{}
}

func (e *ValidityEngine) inRange(cal *model.Calendar, date time.Time) bool {
	d := model.DateKey(date)
	return d >= model.DateKey(cal.StartDate) && d <= model.DateKey(cal.EndDate)
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsDateValid applies, in order: range check, HOLIDAY override (always
// wins), RUNDAY override, then the recurrence default. DAILY recurrence
// allows every day; all other recurrences exclude weekends.
func (e *ValidityEngine) IsDateValid(cal *model.Calendar, date time.Time) bool {
	if !e.inRange(cal, date) {
		return false
	}
	if cal.HasDay(date, model.DAY_TYPE_HOLIDAY) {
		return false
	}
	if cal.HasDay(date, model.DAY_TYPE_RUNDAY) {
		return true
	}
	if cal.Recurrence == model.RECURRENCE_DAILY {
		return true
	}
	return !isWeekend(date)
}

// CanExecuteWorkflow is the stricter trigger-path variant. A calendar
// that declares any RUNDAY entries runs only on exactly those dates,
// with no recurrence fallback; this intentionally diverges from
// IsDateValid for DAILY calendars that also carry RUNDAY entries.
func (e *ValidityEngine) CanExecuteWorkflow(cal *model.Calendar, date time.Time) bool {
	if !e.inRange(cal, date) {
		return false
	}
	if cal.HasDay(date, model.DAY_TYPE_HOLIDAY) {
		return false
	}
	if cal.CountDays(model.DAY_TYPE_RUNDAY) > 0 {
		return cal.HasDay(date, model.DAY_TYPE_RUNDAY)
	}
	return !isWeekend(date)
}

// EffectiveDate shifts the trigger date by the calendar's offset before
// validity checks.
func (e *ValidityEngine) EffectiveDate(cal *model.Calendar, base time.Time) time.Time {
	return model.DateOnly(base).AddDate(0, 0, cal.OffsetDays)
}

// NextValidDate scans forward from the day after the given date and
// returns the first valid one, or false once past the calendar range.
func (e *ValidityEngine) NextValidDate(cal *model.Calendar, from time.Time) (time.Time, bool) {
	d := model.DateOnly(from).AddDate(0, 0, 1)
	end := model.DateKey(cal.EndDate)
	for model.DateKey(d) <= end {
		if e.IsDateValid(cal, d) {
			return d, true
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Time{}, false
}

// PreviousValidDate scans backward from the day before the given date.
func (e *ValidityEngine) PreviousValidDate(cal *model.Calendar, from time.Time) (time.Time, bool) {
	d := model.DateOnly(from).AddDate(0, 0, -1)
	start := model.DateKey(cal.StartDate)
	for model.DateKey(d) >= start {
		if e.IsDateValid(cal, d) {
			return d, true
		}
		d = d.AddDate(0, 0, -1)
	}
	return time.Time{}, false
}
