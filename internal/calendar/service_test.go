package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradingDaysSkipsWeekendsAndHolidays(t *testing.T) {
	svc := NewService(USFederal{}, NewMapStore(), zerolog.Nop())

	days := svc.TradingDays(date(2025, time.June, 14), date(2025, time.June, 22))

	want := []time.Time{
		date(2025, time.June, 16),
		date(2025, time.June, 17),
		date(2025, time.June, 18),
		date(2025, time.June, 20), // Juneteenth closes the 19th
	}
	assert.Equal(t, want, days)
}

func TestTradingDaysEmptyWhenEndBeforeStart(t *testing.T) {
	svc := NewService(nil, nil, zerolog.Nop())
	days := svc.TradingDays(date(2025, time.July, 1), date(2025, time.June, 1))
	require.NotNil(t, days)
	assert.Empty(t, days)
}

func TestTradingDaysMemoized(t *testing.T) {
	calls := 0
	provider := HolidayFunc(func(year int) ([]time.Time, error) {
		calls++
		return USFederal{}.Holidays(year)
	})
	svc := NewService(provider, NewMapStore(), zerolog.Nop())

	start := time.Date(2025, time.April, 1, 15, 30, 0, 0, time.UTC)
	first := svc.TradingDays(start, date(2025, time.October, 21))
	second := svc.TradingDays(date(2025, time.April, 1), date(2025, time.October, 21))

	require.NotEmpty(t, first)
	assert.Same(t, &first[0], &second[0])
	assert.Equal(t, 1, calls)
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, svc.Stats())

	svc.Reset()
	svc.TradingDays(start, date(2025, time.October, 21))
	assert.Equal(t, 2, calls)
	assert.Equal(t, Stats{Misses: 1}, svc.Stats())
}

func TestExpiringStoreBacksMemo(t *testing.T) {
	svc := NewService(USFederal{}, NewExpiringStore(time.Hour), zerolog.Nop())
	a := svc.TradingDays(date(2024, time.December, 20), date(2025, time.January, 3))
	b := svc.TradingDays(date(2024, time.December, 20), date(2025, time.January, 3))
	assert.Same(t, &a[0], &b[0])
	assert.NotContains(t, a, date(2024, time.December, 25))
	assert.NotContains(t, a, date(2025, time.January, 1))
}

func TestHolidayFailureMeansNoHolidays(t *testing.T) {
	provider := HolidayFunc(func(year int) ([]time.Time, error) {
		return nil, errors.New("provider offline")
	})
	svc := NewService(provider, nil, zerolog.Nop())
	days := svc.TradingDays(date(2025, time.July, 3), date(2025, time.July, 4))
	assert.Equal(t, []time.Time{date(2025, time.July, 3), date(2025, time.July, 4)}, days)
}

func TestUSFederalObservance(t *testing.T) {
	tests := []struct {
		name string
		year int
		want time.Time
	}{
		{"independence on saturday", 2026, date(2026, time.July, 3)},
		{"christmas on sunday", 2022, date(2022, time.December, 26)},
		{"memorial day", 2025, date(2025, time.May, 26)},
		{"thanksgiving", 2024, date(2024, time.November, 28)},
		{"mlk day", 2023, date(2023, time.January, 16)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := USFederal{}.Holidays(tt.year)
			require.NoError(t, err)
			assert.Contains(t, list, tt.want)
		})
	}

	before, _ := USFederal{}.Holidays(2020)
	assert.NotContains(t, before, date(2020, time.June, 19))
}
