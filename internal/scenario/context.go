// Package scenario defines the shared context every generator reads: the
// entity universe, the temporal windows, the stress definition and the
// per-ticker event profiles.
package scenario

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"portfolio-scenario-gen/internal/calendar"
	"portfolio-scenario-gen/internal/stochastic"
	"portfolio-scenario-gen/internal/universe"
)

// Range is a closed interval used for uniform multipliers.
type Range struct {
	Lo float64
	Hi float64
}

// EventProfile describes the factor anomaly injected for one ticker.
type EventProfile struct {
	Ticker             string
	VolBoost           Range
	PivotMultiple      float64
	MomentumBoost      Range
	QualityDiscount    float64
	SentimentMeanScale float64
	SentimentSigma     float64
}

// Stress names the sleeve and sector under pressure and the overlay knobs
// applied to them.
type Stress struct {
	Sleeve             string
	Sector             string
	LimitTypes         []string
	TurnoverMultiplier float64
	DeRiskFactor       Range
	Drawdown           float64
	DrawdownOthers     float64
	ClusterCounts      []int
}

// DefaultStress is the Growth-US semiconductor de-risking story.
func DefaultStress() Stress {
	return Stress{
		Sleeve:             universe.GrowthUS,
		Sector:             universe.Semiconductors,
		LimitTypes:         []string{universe.LimitVAR, universe.LimitGamma},
		TurnoverMultiplier: 1.35,
		DeRiskFactor:       Range{Lo: 0.70, Hi: 0.88},
		Drawdown:           -0.023,
		DrawdownOthers:     -0.010,
		ClusterCounts:      []int{3, 4, 5},
	}
}

// DefaultEvents returns the primary (NVDA) and secondary (AMD) profiles.
func DefaultEvents() []EventProfile {
	return []EventProfile{
		{
			Ticker:             "NVDA",
			VolBoost:           Range{Lo: 1.25, Hi: 1.60},
			PivotMultiple:      1.90,
			MomentumBoost:      Range{Lo: 1.05, Hi: 1.20},
			QualityDiscount:    0.78,
			SentimentMeanScale: 0.90,
			SentimentSigma:     0.25,
		},
		{
			Ticker:             "AMD",
			VolBoost:           Range{Lo: 1.15, Hi: 1.40},
			PivotMultiple:      1.55,
			MomentumBoost:      Range{Lo: 1.03, Hi: 1.12},
			QualityDiscount:    0.85,
			SentimentMeanScale: 0.95,
			SentimentSigma:     0.22,
		},
	}
}

// Context is passed by reference into every generator and the validator.
type Context struct {
	Universe *universe.Universe
	Windows  Windows
	Stress   Stress
	Events   []EventProfile
	Calendar *calendar.Service
	Seed     uint64
}

// New validates and assembles a scenario context.
func New(u *universe.Universe, w Windows, cal *calendar.Service, seed uint64) (*Context, error) {
	if u == nil {
		return nil, fmt.Errorf("scenario: universe is required")
	}
	if cal == nil {
		return nil, fmt.Errorf("scenario: calendar is required")
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	c := &Context{
		Universe: u,
		Windows:  w,
		Stress:   DefaultStress(),
		Events:   DefaultEvents(),
		Calendar: cal,
		Seed:     seed,
	}
	for _, e := range c.Events {
		if !u.HasTicker(e.Ticker) {
			return nil, fmt.Errorf("scenario: event ticker %s not in universe", e.Ticker)
		}
	}
	if !u.HasSleeve(c.Stress.Sleeve) {
		return nil, fmt.Errorf("scenario: stressed sleeve %s not in universe", c.Stress.Sleeve)
	}
	return c, nil
}

// Stream returns the random stream dedicated to a table.
func (c *Context) Stream(table string) *stochastic.Stream {
	return stochastic.Derive(c.Seed, table)
}

// RunID identifies the scenario deterministically from its seed and windows.
func (c *Context) RunID() uuid.UUID {
	name := fmt.Sprintf("%d|%s|%s|%s", c.Seed,
		c.Windows.RangeStart.Format(time.DateOnly),
		c.Windows.RangeEnd.Format(time.DateOnly),
		c.Windows.EventPivot.Format(time.DateOnly))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

// FullDays are the trading days of the factor history.
func (c *Context) FullDays() []time.Time {
	return c.Calendar.TradingDays(c.Windows.RangeStart, c.Windows.RangeEnd)
}

// ImpactDays are the trading days of the internal-data history.
func (c *Context) ImpactDays() []time.Time {
	return c.Calendar.TradingDays(c.Windows.ImpactStart, c.Windows.ImpactEnd)
}

// Profile returns the event profile of ticker, if any.
func (c *Context) Profile(ticker string) (EventProfile, bool) {
	for _, e := range c.Events {
		if e.Ticker == ticker {
			return e, true
		}
	}
	return EventProfile{}, false
}

// Primary is the ticker whose volatility spike anchors the story.
func (c *Context) Primary() EventProfile {
	return c.Events[0]
}

// IsStressedPosition reports whether sleeve/ticker is the de-risked pair.
func (c *Context) IsStressedPosition(sleeve, ticker string) bool {
	return sleeve == c.Stress.Sleeve && c.Universe.Sector(ticker) == c.Stress.Sector
}

// IsStressedSector reports whether ticker belongs to the stressed sector.
func (c *Context) IsStressedSector(ticker string) bool {
	return c.Universe.Sector(ticker) == c.Stress.Sector
}

// IsStressedLimit reports whether limit is one of the tightened limit types.
func (c *Context) IsStressedLimit(limit string) bool {
	for _, l := range c.Stress.LimitTypes {
		if l == limit {
			return true
		}
	}
	return false
}
