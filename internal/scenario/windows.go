package scenario

import (
	"errors"
	"fmt"
	"time"
)

const day = 24 * time.Hour

// Windows is the temporal contract shared by every table. All values are
// midnight UTC dates.
type Windows struct {
	RangeStart    time.Time
	RangeEnd      time.Time
	ImpactStart   time.Time
	ImpactEnd     time.Time
	EventStart    time.Time
	EventPivot    time.Time
	EventEnd      time.Time
	BaselineStart time.Time
	RecoveryEnd   time.Time
}

// DefaultWindows is the June 2025 regime-shift story.
func DefaultWindows() Windows {
	return Windows{
		RangeStart:    Date(2022, time.October, 1),
		RangeEnd:      Date(2025, time.October, 21),
		ImpactStart:   Date(2025, time.April, 1),
		ImpactEnd:     Date(2025, time.October, 21),
		EventStart:    Date(2025, time.June, 15),
		EventPivot:    Date(2025, time.June, 18),
		EventEnd:      Date(2025, time.June, 22),
		BaselineStart: Date(2025, time.March, 20),
		RecoveryEnd:   Date(2025, time.July, 31),
	}
}

// Date builds a midnight UTC date.
func Date(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// Validate checks window ordering.
func (w Windows) Validate() error {
	checks := []struct {
		name        string
		first, then time.Time
	}{
		{"range_start <= range_end", w.RangeStart, w.RangeEnd},
		{"impact_start <= impact_end", w.ImpactStart, w.ImpactEnd},
		{"range_start <= impact_start", w.RangeStart, w.ImpactStart},
		{"impact_end <= range_end", w.ImpactEnd, w.RangeEnd},
		{"event_start <= event_pivot", w.EventStart, w.EventPivot},
		{"event_pivot <= event_end", w.EventPivot, w.EventEnd},
		{"impact_start <= event_start", w.ImpactStart, w.EventStart},
		{"event_end <= impact_end", w.EventEnd, w.ImpactEnd},
		{"baseline_start < event_start", w.BaselineStart, w.BaselineEnd()},
		{"range_start <= baseline_start", w.RangeStart, w.BaselineStart},
		{"event_end <= recovery_end", w.EventEnd, w.RecoveryEnd},
	}
	var errs []error
	for _, c := range checks {
		if c.first.After(c.then) {
			errs = append(errs, fmt.Errorf("scenario windows: %s violated (%s > %s)", c.name,
				c.first.Format(time.DateOnly), c.then.Format(time.DateOnly)))
		}
	}
	return errors.Join(errs...)
}

func within(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

// InEvent reports d in [EventStart, EventEnd].
func (w Windows) InEvent(d time.Time) bool {
	return within(d, w.EventStart, w.EventEnd)
}

// IsPivot reports d == EventPivot.
func (w Windows) IsPivot(d time.Time) bool {
	return d.Equal(w.EventPivot)
}

// BaselineEnd is the last day of the pre-event lookback.
func (w Windows) BaselineEnd() time.Time {
	return w.EventStart.Add(-day)
}

// InBaseline reports d in [BaselineStart, EventStart-1d].
func (w Windows) InBaseline(d time.Time) bool {
	return within(d, w.BaselineStart, w.BaselineEnd())
}

// InDrawdown reports d in [EventPivot, EventPivot+7d].
func (w Windows) InDrawdown(d time.Time) bool {
	return within(d, w.EventPivot, w.EventPivot.Add(7*day))
}

// InDeRisk reports d in [EventPivot, EventPivot+10d].
func (w Windows) InDeRisk(d time.Time) bool {
	return within(d, w.EventPivot, w.EventPivot.Add(10*day))
}

// InRecovery reports d in (EventEnd, RecoveryEnd].
func (w Windows) InRecovery(d time.Time) bool {
	return d.After(w.EventEnd) && !d.After(w.RecoveryEnd)
}

// InCluster reports d in [EventPivot, EventPivot+2d].
func (w Windows) InCluster(d time.Time) bool {
	return within(d, w.EventPivot, w.EventPivot.Add(2*day))
}
