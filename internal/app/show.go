package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"portfolio-scenario-gen/internal/export"
	"portfolio-scenario-gen/internal/storage"
)

// Show prints what the last run persisted: database table summaries when a
// DSN is configured, otherwise the output manifest.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	if opts.Dir == "" {
		store, closeStore, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		if store != nil {
			defer closeStore()
			summaries, err := store.Summaries(ctx)
			if err != nil {
				return err
			}
			return writeSummaries(os.Stdout, summaries)
		}
		opts.Dir = a.Config.Output.Dir
	}

	manifest, err := export.ReadManifest(opts.Dir)
	if err != nil {
		return err
	}
	return writeManifest(os.Stdout, manifest)
}

func writeSummaries(w io.Writer, summaries []storage.TableSummary) error {
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Table\tRows\tFirst\tLast")
	for _, s := range summaries {
		fmt.Fprintf(writer, "%s\t%d\t%s\t%s\n", s.Table, s.Rows, formatBound(s.First), formatBound(s.Last))
	}
	return writer.Flush()
}

func writeManifest(w io.Writer, m export.Manifest) error {
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Run %s (seed %d, %s)\n", m.RunID, m.Seed, m.Format)
	fmt.Fprintln(writer, "Table\tRows\tFiles\tColumns")
	for _, t := range m.Tables {
		fmt.Fprintf(writer, "%s\t%d\t%d\t%d\n", t.Name, t.Rows, len(t.Files), len(t.Columns))
	}
	return writer.Flush()
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.DateOnly)
}
