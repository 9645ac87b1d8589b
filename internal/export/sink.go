// Package export hands fully materialized tables to persistence targets.
package export

import (
	"context"
	"errors"
	"fmt"

	"portfolio-scenario-gen/internal/dataset"
)

// Sink persists tables. Write receives each table once, in hand-off order,
// with the number of files the table should be split into. Close runs after
// the last table.
type Sink interface {
	Name() string
	Write(ctx context.Context, table dataset.Table, files int) error
	Close(ctx context.Context) error
}

// Fanout writes every table to each sink in order.
type Fanout []Sink

// Name implements Sink.
func (f Fanout) Name() string { return "fanout" }

// Write stops at the first failing sink.
func (f Fanout) Write(ctx context.Context, table dataset.Table, files int) error {
	for _, s := range f {
		if err := s.Write(ctx, table, files); err != nil {
			return fmt.Errorf("%s sink: write %s: %w", s.Name(), table.Name(), err)
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (f Fanout) Close(ctx context.Context) error {
	var errs []error
	for _, s := range f {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s sink: close: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Part is a contiguous row range [Lo, Hi) of one output file.
type Part struct {
	Lo int
	Hi int
}

// Partition splits n rows into files contiguous parts whose sizes differ by
// at most one. files is clamped to [1, n]; an empty table yields one empty part.
func Partition(n, files int) []Part {
	if n <= 0 {
		return []Part{{}}
	}
	if files < 1 {
		files = 1
	}
	if files > n {
		files = n
	}
	size, extra := n/files, n%files
	parts := make([]Part, 0, files)
	lo := 0
	for i := 0; i < files; i++ {
		hi := lo + size
		if i < extra {
			hi++
		}
		parts = append(parts, Part{Lo: lo, Hi: hi})
		lo = hi
	}
	return parts
}

var _ Sink = Fanout(nil)
