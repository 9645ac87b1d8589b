package calendar

import "time"

// HolidayProvider resolves the non-trading dates of a calendar year.
type HolidayProvider interface {
	Holidays(year int) ([]time.Time, error)
}

// HolidayFunc adapts a function to HolidayProvider.
type HolidayFunc func(year int) ([]time.Time, error)

// Holidays implements HolidayProvider.
func (f HolidayFunc) Holidays(year int) ([]time.Time, error) {
	return f(year)
}

// USFederal lists United States federal holidays with weekend observance:
// Saturday holidays are observed the Friday before, Sunday holidays the Monday after.
type USFederal struct{}

// Holidays implements HolidayProvider.
func (USFederal) Holidays(year int) ([]time.Time, error) {
	days := []time.Time{
		observed(date(year, time.January, 1)),
		nthWeekday(year, time.January, time.Monday, 3),
		nthWeekday(year, time.February, time.Monday, 3),
		lastWeekday(year, time.May, time.Monday),
		observed(date(year, time.July, 4)),
		nthWeekday(year, time.September, time.Monday, 1),
		nthWeekday(year, time.October, time.Monday, 2),
		observed(date(year, time.November, 11)),
		nthWeekday(year, time.November, time.Thursday, 4),
		observed(date(year, time.December, 25)),
	}
	if year >= 2021 {
		days = append(days, observed(date(year, time.June, 19)))
	}
	return days, nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	default:
		return d
	}
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+7*(n-1))
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	d := date(year, month+1, 1).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(wd) + 7) % 7
	return d.AddDate(0, 0, -offset)
}
