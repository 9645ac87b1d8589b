package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"portfolio-scenario-gen/internal/dataset"
)

// ErrLocked means another run holds the load lock.
var ErrLocked = errors.New("storage: another run holds the load lock")

// LoadTarget is what the sink needs from a store.
type LoadTarget interface {
	TableStore
	AdvisoryLocker
}

// Sink loads handed-off tables into PostgreSQL. It satisfies export.Sink.
type Sink struct {
	store  TableStore
	unlock func()
	logger zerolog.Logger
}

// NewSink prepares the schema and, when lockKey is non-zero, takes the
// advisory lock for the lifetime of the sink.
func NewSink(ctx context.Context, store LoadTarget, lockKey int64, logger zerolog.Logger) (*Sink, error) {
	s := &Sink{store: store, logger: logger.With().Str("component", "storage").Logger()}

	if lockKey != 0 {
		unlock, acquired, err := store.TryAdvisoryLock(ctx, lockKey)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, fmt.Errorf("%w (key %d)", ErrLocked, lockKey)
		}
		s.unlock = unlock
	}

	if err := store.EnsureSchema(ctx); err != nil {
		s.release()
		return nil, err
	}
	return s, nil
}

// Name implements export.Sink.
func (s *Sink) Name() string { return "postgres" }

// Write replaces the table's contents. The file count only applies to file
// outputs and is ignored.
func (s *Sink) Write(ctx context.Context, table dataset.Table, _ int) error {
	copied, err := s.store.ReplaceTable(ctx, table)
	if err != nil {
		return err
	}
	if copied != int64(table.Len()) {
		return fmt.Errorf("copy %s: loaded %d of %d rows", table.Name(), copied, table.Len())
	}
	s.logger.Info().Str("table", table.Name()).Int64("rows", copied).Msg("table loaded")
	return nil
}

// Close releases the advisory lock.
func (s *Sink) Close(context.Context) error {
	s.release()
	return nil
}

func (s *Sink) release() {
	if s.unlock != nil {
		s.unlock()
		s.unlock = nil
	}
}
