package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerRegister(t *testing.T) {
	s := NewScheduler(func(calendarId int64, tickDate time.Time) {})
	defer s.Stop()

	cal := weeklyCalendar()
	cal.CronExpression = "0 0 6 * * MON-FRI"
	require.NoError(t, s.Register(cal))
	require.True(t, s.Registered(cal.Id))

	s.Unregister(cal.Id)
	require.False(t, s.Registered(cal.Id))
}

func TestSchedulerInvalidExpressionFallsBack(t *testing.T) {
	s := NewScheduler(func(calendarId int64, tickDate time.Time) {})
	defer s.Stop()

	cal := weeklyCalendar()
	cal.CronExpression = "not a cron"
	// Registration must survive the bad expression via the fallback.
	require.NoError(t, s.Register(cal))
	require.True(t, s.Registered(cal.Id))
	require.Equal(t, FALLBACK_CRON, s.crons[cal.Id].expr)
}

func TestSchedulerPauseResume(t *testing.T) {
	s := NewScheduler(func(calendarId int64, tickDate time.Time) {})
	defer s.Stop()

	cal := weeklyCalendar()
	cal.CronExpression = "* * * * * *"
	require.NoError(t, s.Register(cal))
	s.Pause(cal.Id)
	require.True(t, s.crons[cal.Id].paused)
	s.Resume(cal.Id)
	require.False(t, s.crons[cal.Id].paused)
}

func TestSchedulerTickFires(t *testing.T) {
	ticked := make(chan int64, 1)
	s := NewScheduler(func(calendarId int64, tickDate time.Time) {
		select {
		case ticked <- calendarId:
		default:
		}
	})
	defer s.Stop()

	cal := weeklyCalendar()
	cal.CronExpression = "* * * * * *"
	require.NoError(t, s.Register(cal))

	select {
	case id := <-ticked:
		require.Equal(t, cal.Id, id)
	case <-time.After(3 * time.Second):
		t.Fatal("tick did not fire")
	}
}

func TestSchedulerUnknownTimezone(t *testing.T) {
	s := NewScheduler(func(calendarId int64, tickDate time.Time) {})
	defer s.Stop()

	cal := weeklyCalendar()
	cal.CronExpression = "0 0 9 * * *"
	cal.Timezone = "Not/AZone"
	require.NoError(t, s.Register(cal))
	require.Equal(t, time.UTC, s.crons[cal.Id].tz)
}
