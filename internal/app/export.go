package app

import (
	"context"
	"errors"

	"portfolio-scenario-gen/internal/export"
	"portfolio-scenario-gen/internal/scenario"
	"portfolio-scenario-gen/internal/storage"
	"portfolio-scenario-gen/internal/version"
)

// newSinks assembles the configured persistence targets. The returned closer
// releases the database pool and must run after the sinks are closed.
func (a *App) newSinks(ctx context.Context, sc *scenario.Context, opts GenerateOptions) (export.Sink, func(), error) {
	var sinks export.Fanout
	closer := func() {}

	out := a.Config.Output
	if opts.Dir != "" {
		out.Dir = opts.Dir
		out.Enabled = true
	}
	if opts.Format != "" {
		out.Format = opts.Format
	}

	if out.Enabled {
		fileSink, err := export.NewFileSink(export.FileOptions{
			Dir:         out.Dir,
			Format:      out.Format,
			Manifest:    out.Manifest,
			Concurrency: out.Concurrency,
			RunID:       sc.RunID().String(),
			Seed:        sc.Seed,
			Generator:   version.String(),
		}, a.Logger)
		if err != nil {
			return nil, closer, err
		}
		sinks = append(sinks, fileSink)
	}

	if !opts.SkipDatabase {
		store, closeStore, err := a.openStore(ctx)
		if err != nil {
			return nil, closer, err
		}
		if store != nil {
			dbSink, err := storage.NewSink(ctx, store, a.Config.Database.AdvisoryLockKey, a.Logger)
			if err != nil {
				closeStore()
				if errors.Is(err, storage.ErrLocked) {
					a.Logger.Warn().Int64("lock_key", a.Config.Database.AdvisoryLockKey).Msg("another run is loading the database")
				}
				return nil, closer, err
			}
			sinks = append(sinks, dbSink)
			closer = closeStore
		}
	}

	if len(sinks) == 0 {
		return nil, closer, nil
	}
	return sinks, closer, nil
}
