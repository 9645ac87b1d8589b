package qa

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// ErrValidationFailed is wrapped by Report.Err when invariants are violated.
var ErrValidationFailed = errors.New("qa: validation failed")

// Finding is a recomputed scenario metric compared against its target band.
type Finding struct {
	Metric string
	Value  float64
	Target string
	Within bool
}

// Violation aggregates every failure of one invariant check.
type Violation struct {
	Check   string
	Count   int
	Samples []string
}

// Report is the outcome of one validation pass.
type Report struct {
	RunID      string
	Findings   []Finding
	Violations []Violation

	maxSamples int
	index      map[string]int
}

func newReport(runID string, maxSamples int) *Report {
	return &Report{RunID: runID, maxSamples: maxSamples, index: make(map[string]int)}
}

func (r *Report) find(metric string, value float64, target string, within bool) {
	r.Findings = append(r.Findings, Finding{Metric: metric, Value: value, Target: target, Within: within})
}

func (r *Report) violate(check, format string, args ...any) {
	i, ok := r.index[check]
	if !ok {
		r.Violations = append(r.Violations, Violation{Check: check})
		i = len(r.Violations) - 1
		r.index[check] = i
	}
	v := &r.Violations[i]
	v.Count++
	if len(v.Samples) < r.maxSamples {
		v.Samples = append(v.Samples, fmt.Sprintf(format, args...))
	}
}

// Finding looks up a metric by name.
func (r *Report) Finding(metric string) (Finding, bool) {
	for _, f := range r.Findings {
		if f.Metric == metric {
			return f, true
		}
	}
	return Finding{}, false
}

// Violated reports whether check failed at least once.
func (r *Report) Violated(check string) bool {
	_, ok := r.index[check]
	return ok
}

// OK reports whether every invariant held.
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

// OutOfBand counts findings outside their target band.
func (r *Report) OutOfBand() int {
	n := 0
	for _, f := range r.Findings {
		if !f.Within {
			n++
		}
	}
	return n
}

// Err returns nil when the report is clean, otherwise an error wrapping
// ErrValidationFailed and one error per failed check.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Violations))
	for _, v := range r.Violations {
		errs = append(errs, fmt.Errorf("%s: %d violation(s), first: %s", v.Check, v.Count, firstSample(v)))
	}
	return fmt.Errorf("%w: %w", ErrValidationFailed, errors.Join(errs...))
}

// Summary is a one-line digest used by logs and notifications.
func (r *Report) Summary() string {
	status := "PASS"
	if !r.OK() {
		status = "FAIL"
	}
	return fmt.Sprintf("%s: %d findings (%d out of band), %d failed checks",
		status, len(r.Findings), r.OutOfBand(), len(r.Violations))
}

// Render prints the findings and violations as aligned tables.
func (r *Report) Render(w io.Writer) error {
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "QA run %s\n", r.RunID)
	fmt.Fprintln(writer, "Metric\tValue\tTarget\tStatus")
	for _, f := range r.Findings {
		status := "ok"
		if !f.Within {
			status = "out of band"
		}
		fmt.Fprintf(writer, "%s\t%.4f\t%s\t%s\n", f.Metric, f.Value, f.Target, status)
	}

	if len(r.Violations) > 0 {
		fmt.Fprintln(writer)
		fmt.Fprintln(writer, "Check\tCount\tExample")
		for _, v := range r.Violations {
			fmt.Fprintf(writer, "%s\t%d\t%s\n", v.Check, v.Count, firstSample(v))
		}
	}
	fmt.Fprintln(writer, r.Summary())
	return writer.Flush()
}

func firstSample(v Violation) string {
	if len(v.Samples) == 0 {
		return ""
	}
	return strings.ReplaceAll(v.Samples[0], "\n", " ")
}
