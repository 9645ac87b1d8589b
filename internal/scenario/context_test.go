package scenario

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-scenario-gen/internal/calendar"
	"portfolio-scenario-gen/internal/universe"
)

func newTestContext(t *testing.T, w Windows) *Context {
	t.Helper()
	cal := calendar.NewService(calendar.USFederal{}, calendar.NewMapStore(), zerolog.Nop())
	sc, err := New(universe.Default(), w, cal, 42)
	require.NoError(t, err)
	return sc
}

func TestDefaultWindowsValid(t *testing.T) {
	require.NoError(t, DefaultWindows().Validate())
}

func TestWindowsValidateRejectsInvertedEvent(t *testing.T) {
	w := DefaultWindows()
	w.EventPivot = Date(2025, time.June, 30)
	err := w.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event_pivot <= event_end")
}

func TestWindowPredicates(t *testing.T) {
	w := DefaultWindows()
	assert.True(t, w.InEvent(Date(2025, time.June, 15)))
	assert.True(t, w.InEvent(Date(2025, time.June, 22)))
	assert.False(t, w.InEvent(Date(2025, time.June, 23)))
	assert.True(t, w.IsPivot(Date(2025, time.June, 18)))
	assert.True(t, w.InBaseline(Date(2025, time.June, 13)))
	assert.False(t, w.InBaseline(Date(2025, time.June, 15)))
	assert.True(t, w.InCluster(Date(2025, time.June, 20)))
	assert.False(t, w.InCluster(Date(2025, time.June, 21)))
	assert.True(t, w.InDeRisk(Date(2025, time.June, 28)))
	assert.False(t, w.InDeRisk(Date(2025, time.June, 29)))
	assert.True(t, w.InDrawdown(Date(2025, time.June, 25)))
	assert.False(t, w.InRecovery(Date(2025, time.June, 22)))
	assert.True(t, w.InRecovery(Date(2025, time.July, 31)))
}

func TestContextStressHelpers(t *testing.T) {
	sc := newTestContext(t, DefaultWindows())
	assert.True(t, sc.IsStressedPosition(universe.GrowthUS, "AMD"))
	assert.False(t, sc.IsStressedPosition(universe.GrowthUS, "MSFT"))
	assert.False(t, sc.IsStressedPosition(universe.CoreEMEA, "NVDA"))
	assert.True(t, sc.IsStressedLimit(universe.LimitGamma))
	assert.False(t, sc.IsStressedLimit(universe.LimitConcentration))
	assert.Equal(t, "NVDA", sc.Primary().Ticker)

	p, ok := sc.Profile("AMD")
	require.True(t, ok)
	assert.Equal(t, 1.55, p.PivotMultiple)
}

func TestRunIDStable(t *testing.T) {
	a := newTestContext(t, DefaultWindows())
	b := newTestContext(t, DefaultWindows())
	assert.Equal(t, a.RunID(), b.RunID())

	b.Seed = 7
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestImpactDaysShareCalendar(t *testing.T) {
	sc := newTestContext(t, DefaultWindows())
	first := sc.ImpactDays()
	second := sc.ImpactDays()
	require.NotEmpty(t, first)
	assert.Same(t, &first[0], &second[0])
	assert.Equal(t, int64(1), sc.Calendar.Stats().Hits)
}
