package brain

import (
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// 휴장일은 고려하지 않음 (월~금 = 영업일)

// IsBusinessDay reports whether d falls on Monday through Friday
func IsBusinessDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// FirstBusinessDayOfWeek returns the Monday of d's week (weeks start Monday)
func FirstBusinessDayOfWeek(d time.Time) time.Time {
	day := truncateDay(d)
	offset := (int(day.Weekday()) + 6) % 7 // 월=0 ... 일=6
	return day.AddDate(0, 0, -offset)
}

// FirstBusinessDayOfMonth returns the first Monday-Friday date of d's month
func FirstBusinessDayOfMonth(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
	for !IsBusinessDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// IsRebalanceDay reports whether timeframe tf is due on date d
// DAILY: 항상, WEEKLY: 주의 첫 영업일, MONTHLY: 월의 첫 영업일
func IsRebalanceDay(tf contracts.Timeframe, d time.Time) bool {
	day := truncateDay(d)
	switch tf {
	case contracts.TimeframeDaily:
		return true
	case contracts.TimeframeWeekly:
		return day.Equal(FirstBusinessDayOfWeek(day))
	case contracts.TimeframeMonthly:
		return day.Equal(FirstBusinessDayOfMonth(day))
	}
	return false
}

// DueTimeframes filters tfs to those due on d, keeping order
// force이면 달력과 무관하게 전부 반환
func DueTimeframes(tfs []contracts.Timeframe, d time.Time, force bool) []contracts.Timeframe {
	out := make([]contracts.Timeframe, 0, len(tfs))
	for _, tf := range tfs {
		if force || IsRebalanceDay(tf, d) {
			out = append(out, tf)
		}
	}
	return out
}

func truncateDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}
