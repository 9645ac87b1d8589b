package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"portfolio-scenario-gen/internal/dataset"
)

// Output formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// CSVTimeLayout renders timestamps at millisecond precision without a zone.
const CSVTimeLayout = "2006-01-02 15:04:05.000"

// FileOptions configure a FileSink.
type FileOptions struct {
	Dir         string
	Format      string
	Manifest    bool
	Concurrency int
	RunID       string
	Seed        uint64
	Generator   string
}

// FileSink writes each table to <dir>/<table>/part-NNNNN.<format>.
type FileSink struct {
	opts   FileOptions
	logger zerolog.Logger

	mu     sync.Mutex
	tables []ManifestTable
}

// NewFileSink validates options and creates the output directory.
func NewFileSink(opts FileOptions, logger zerolog.Logger) (*FileSink, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("output.dir is required")
	}
	switch opts.Format {
	case "":
		opts.Format = FormatParquet
	case FormatCSV, FormatParquet:
	default:
		return nil, fmt.Errorf("unsupported output format %q", opts.Format)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileSink{opts: opts, logger: logger.With().Str("component", "export").Logger()}, nil
}

// Name implements Sink.
func (s *FileSink) Name() string { return "file" }

// Write replaces the table directory with freshly written partitions.
func (s *FileSink) Write(ctx context.Context, table dataset.Table, files int) error {
	dir := filepath.Join(s.opts.Dir, table.Name())
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	parts := Partition(table.Len(), files)
	names := make([]string, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, p := range parts {
		names[i] = fmt.Sprintf("part-%05d.%s", i, s.opts.Format)
		path := filepath.Join(dir, names[i])
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return s.writePart(path, table, p)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.tables = append(s.tables, ManifestTable{
		Name:    table.Name(),
		Rows:    table.Len(),
		Files:   names,
		Columns: table.Columns(),
	})
	s.mu.Unlock()

	s.logger.Info().
		Str("table", table.Name()).
		Int("rows", table.Len()).
		Int("files", len(parts)).
		Str("format", s.opts.Format).
		Msg("table written")
	return nil
}

// Close writes the run manifest when enabled.
func (s *FileSink) Close(ctx context.Context) error {
	if !s.opts.Manifest {
		return nil
	}
	s.mu.Lock()
	m := Manifest{
		RunID:     s.opts.RunID,
		Seed:      s.opts.Seed,
		Generator: s.opts.Generator,
		Format:    s.opts.Format,
		Tables:    append([]ManifestTable(nil), s.tables...),
	}
	s.mu.Unlock()
	return WriteManifest(s.opts.Dir, m)
}

func (s *FileSink) writePart(path string, table dataset.Table, p Part) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	switch s.opts.Format {
	case FormatCSV:
		err = writeCSV(buf, table, p)
	default:
		err = writeParquet(buf, table, p)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return file.Close()
}

func writeCSV(w io.Writer, table dataset.Table, p Part) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns()); err != nil {
		return err
	}
	record := make([]string, len(table.Columns()))
	for i := p.Lo; i < p.Hi; i++ {
		for j, v := range table.Values(i) {
			record[j] = FormatValue(v)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// FormatValue renders one cell for text output. Nulls become empty strings.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.UTC().Format(CSVTimeLayout)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// policyRecord is the columnar form of a policy change with float thresholds.
type policyRecord struct {
	PolicyID     string    `parquet:"policy_id"`
	ChangeDate   time.Time `parquet:"change_date"`
	ScopeSleeve  string    `parquet:"scope_sleeve"`
	ScopeSector  *string   `parquet:"scope_sector,optional"`
	LimitType    string    `parquet:"limit_type"`
	OldThreshold float64   `parquet:"old_threshold"`
	NewThreshold float64   `parquet:"new_threshold"`
	Notes        string    `parquet:"notes"`
}

func writeParquet(w io.Writer, table dataset.Table, p Part) error {
	switch f := table.(type) {
	case *dataset.Frame[dataset.FactorVector]:
		return writeParquetRows(w, f.Slice(p.Lo, p.Hi))
	case *dataset.Frame[dataset.Position]:
		return writeParquetRows(w, f.Slice(p.Lo, p.Hi))
	case *dataset.Frame[dataset.Order]:
		return writeParquetRows(w, f.Slice(p.Lo, p.Hi))
	case *dataset.Frame[dataset.Breach]:
		return writeParquetRows(w, f.Slice(p.Lo, p.Hi))
	case *dataset.Frame[dataset.PolicyChange]:
		rows := f.Slice(p.Lo, p.Hi)
		out := make([]policyRecord, len(rows))
		for i, r := range rows {
			out[i] = policyRecord{
				PolicyID:     r.PolicyID,
				ChangeDate:   r.ChangeDate,
				ScopeSleeve:  r.ScopeSleeve,
				ScopeSector:  r.ScopeSector,
				LimitType:    r.LimitType,
				OldThreshold: r.OldThreshold.InexactFloat64(),
				NewThreshold: r.NewThreshold.InexactFloat64(),
				Notes:        r.Notes,
			}
		}
		return writeParquetRows(w, out)
	default:
		return fmt.Errorf("parquet: unsupported table %s", table.Name())
	}
}

func writeParquetRows[T any](w io.Writer, rows []T) error {
	pw := parquet.NewGenericWriter[T](w)
	if _, err := pw.Write(rows); err != nil {
		return err
	}
	return pw.Close()
}

var _ Sink = (*FileSink)(nil)
