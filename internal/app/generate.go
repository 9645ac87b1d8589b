package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"portfolio-scenario-gen/internal/alerting"
	"portfolio-scenario-gen/internal/pipeline"
)

// Generate builds all five tables, persists them, and runs QA.
func (a *App) Generate(ctx context.Context, opts GenerateOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sc, err := a.newScenario(opts.Seed)
	if err != nil {
		return err
	}

	sink, closeSinks, err := a.newSinks(ctx, sc, opts)
	if err != nil {
		return err
	}
	defer closeSinks()

	chart := a.Config.QA.ChartPath
	if opts.ChartPath != "" {
		chart = opts.ChartPath
	}

	p := pipeline.New(sc, sink, a.newValidator(), a.newNotifier(), os.Stdout, pipeline.Options{
		Files:               a.Config.Output.Files,
		Enforce:             a.Config.QA.Enforce,
		ChartPath:           chart,
		NotifyOnlyOnFailure: a.Config.Alerting.OnlyOnFailure,
	}, a.Logger)

	_, err = p.Run(ctx)
	return err
}

// QA regenerates the tables in memory and validates them without persisting.
func (a *App) QA(ctx context.Context, opts QAOptions) error {
	sc, err := a.newScenario(opts.Seed)
	if err != nil {
		return err
	}

	var notifier alerting.Notifier
	if opts.Notify {
		notifier = a.newNotifier()
	}

	p := pipeline.New(sc, nil, a.newValidator(), notifier, os.Stdout, pipeline.Options{
		Enforce:             true,
		ChartPath:           opts.ChartPath,
		NotifyOnlyOnFailure: a.Config.Alerting.OnlyOnFailure,
	}, a.Logger)

	_, err = p.Run(ctx)
	return err
}
