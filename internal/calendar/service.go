package calendar

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Stats counts memo lookups.
type Stats struct {
	Hits   int64
	Misses int64
}

// Service computes trading days and memoizes them per (start, end).
type Service struct {
	holidays HolidayProvider
	store    Store
	logger   zerolog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewService wires a holiday provider and a memo store. Nil arguments fall
// back to USFederal and a MapStore.
func NewService(holidays HolidayProvider, store Store, logger zerolog.Logger) *Service {
	if holidays == nil {
		holidays = USFederal{}
	}
	if store == nil {
		store = NewMapStore()
	}
	return &Service{
		holidays: holidays,
		store:    store,
		logger:   logger.With().Str("component", "calendar").Logger(),
	}
}

// Normalize truncates t to midnight UTC of its calendar date.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TradingDays returns Monday-to-Friday dates in [start, end] that are not
// holidays. The returned slice is shared between callers and must not be modified.
func (s *Service) TradingDays(start, end time.Time) []time.Time {
	key := Key{Start: Normalize(start), End: Normalize(end)}
	if days, ok := s.store.Get(key); ok {
		s.hits.Add(1)
		return days
	}
	s.misses.Add(1)

	days := s.compute(key)
	s.store.Set(key, days)
	s.logger.Debug().Str("range", key.String()).Int("days", len(days)).Msg("trading days computed")
	return days
}

// Stats reports memo hits and misses.
func (s *Service) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
}

// Reset clears the memo and counters.
func (s *Service) Reset() {
	s.store.Flush()
	s.hits.Store(0)
	s.misses.Store(0)
}

func (s *Service) compute(key Key) []time.Time {
	if key.End.Before(key.Start) {
		return []time.Time{}
	}

	closed := make(map[time.Time]struct{})
	for year := key.Start.Year(); year <= key.End.Year(); year++ {
		list, err := s.holidays.Holidays(year)
		if err != nil {
			s.logger.Warn().Err(err).Int("year", year).Msg("holiday lookup failed; treating year as holiday-free")
			continue
		}
		for _, h := range list {
			closed[Normalize(h)] = struct{}{}
		}
	}

	days := make([]time.Time, 0, int(key.End.Sub(key.Start).Hours()/24)+1)
	for d := key.Start; !d.After(key.End); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if _, ok := closed[d]; ok {
			continue
		}
		days = append(days, d)
	}
	return days
}
