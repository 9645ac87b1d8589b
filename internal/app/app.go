package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"portfolio-scenario-gen/internal/alerting"
	"portfolio-scenario-gen/internal/calendar"
	"portfolio-scenario-gen/internal/config"
	"portfolio-scenario-gen/internal/qa"
	"portfolio-scenario-gen/internal/scenario"
	"portfolio-scenario-gen/internal/storage"
	"portfolio-scenario-gen/internal/universe"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// newCalendar builds the trading-day service. Configured closures are added
// on top of the federal holidays.
func (a *App) newCalendar() (*calendar.Service, error) {
	var store calendar.Store
	switch a.Config.Calendar.Cache {
	case "expiring":
		store = calendar.NewExpiringStore(a.Config.Calendar.TTL)
	default:
		store = calendar.NewMapStore()
	}

	closures := make(map[int][]time.Time)
	for _, raw := range a.Config.Calendar.Closures {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, fmt.Errorf("calendar closure %q: %w", raw, err)
		}
		closures[d.Year()] = append(closures[d.Year()], d)
	}

	var holidays calendar.HolidayProvider = calendar.USFederal{}
	if len(closures) > 0 {
		holidays = calendar.HolidayFunc(func(year int) ([]time.Time, error) {
			days, err := calendar.USFederal{}.Holidays(year)
			if err != nil {
				return nil, err
			}
			return append(days, closures[year]...), nil
		})
	}
	return calendar.NewService(holidays, store, a.Logger), nil
}

// newScenario assembles the scenario context. A nil seed uses the configured one.
func (a *App) newScenario(seed *uint64) (*scenario.Context, error) {
	cal, err := a.newCalendar()
	if err != nil {
		return nil, err
	}
	s := a.Config.Scenario.Seed
	if seed != nil {
		s = *seed
	}
	return scenario.New(universe.Default(), a.Config.Scenario.Windows(), cal, s)
}

func (a *App) newValidator() *qa.Validator {
	return qa.NewValidator(qa.Options{
		Tolerance:  a.Config.QA.Tolerance,
		MaxSamples: a.Config.QA.MaxSamples,
	}, a.Logger)
}

// GenerateOptions override configuration for one generate run.
type GenerateOptions struct {
	Seed         *uint64
	Dir          string
	Format       string
	SkipDatabase bool
	ChartPath    string
}

// QAOptions configure the qa command.
type QAOptions struct {
	Seed      *uint64
	ChartPath string
	Notify    bool
}

// CalendarOptions configure the calendar command.
type CalendarOptions struct {
	From  time.Time
	To    time.Time
	Count bool
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Dir string
}
