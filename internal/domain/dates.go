package domain

import "time"

// DateOnly truncates t to midnight UTC. All schedule dates are
// calendar dates; keeping them normalized makes week math exact.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the calendar week containing d.
func WeekStart(d time.Time) time.Time {
	d = DateOnly(d)
	wd := int(d.Weekday())
	if wd == 0 { // Sunday belongs to the week that started 6 days earlier
		wd = 7
	}
	return d.AddDate(0, 0, -(wd - 1))
}

// WeekEnd returns the Sunday of the calendar week containing d.
func WeekEnd(d time.Time) time.Time {
	return WeekStart(d).AddDate(0, 0, 6)
}

// AdjustWeekend moves weekend dates back to the preceding Friday:
// Saturday by one day, Sunday by two. Weekdays pass through unchanged.
func AdjustWeekend(d time.Time) time.Time {
	d = DateOnly(d)
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, -2)
	default:
		return d
	}
}

// SameWeek reports whether a and b fall in the same Mon–Sun week.
func SameWeek(a, b time.Time) bool {
	return WeekStart(a).Equal(WeekStart(b))
}

var koreanWeekdays = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// KoreanDate formats d as "2026년 03월 02일".
func KoreanDate(d time.Time) string {
	return d.Format("2006년 01월 02일")
}

// KoreanDateWeekday formats d as "2026년 03월 02일 (월)".
func KoreanDateWeekday(d time.Time) string {
	return d.Format("2006년 01월 02일") + " (" + koreanWeekdays[int(d.Weekday())] + ")"
}
