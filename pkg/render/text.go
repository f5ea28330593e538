// Package render provides sinks that display a computed breakdown.
package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/perfbreak/go-pagetiming/pkg/breakdown"
)

// NotSupportedNotice is displayed when no timing data could be captured.
const NotSupportedNotice = "page timing is not supported in this environment"

// TextRenderer writes an aligned plain-text breakdown.
type TextRenderer struct {
	W io.Writer
}

// NewTextRenderer returns a text renderer writing to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{W: w}
}

// Render writes the report as aligned rows followed by phase bounds and
// the total time. A nil report degrades to the not-supported notice.
func (r *TextRenderer) Render(report *breakdown.Report) error {
	if report == nil {
		_, err := fmt.Fprintln(r.W, NotSupportedNotice)
		return err
	}

	tw := tabwriter.NewWriter(r.W, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INTERVAL\tPHASE\tSTART\tEND\tDURATION")
	for _, row := range report.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			row.Label, row.Phase,
			fmtMillis(row.StartOffset), fmtMillis(row.EndOffset),
			fmtMillis(row.EndOffset-row.StartOffset))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(r.W)
	for _, p := range report.Phases {
		if p.Absent {
			fmt.Fprintf(r.W, "%s: absent\n", p.Name)
			continue
		}
		fmt.Fprintf(r.W, "%s: %s - %s\n", p.Name, fmtMillis(p.StartTime), fmtMillis(p.EndTime))
	}
	_, err := fmt.Fprintf(r.W, "total: %s\n", fmtMillis(report.TotalTime))
	return err
}

// fmtMillis renders a millisecond offset compactly: sub-second values in
// whole ms, the rest in seconds with one decimal.
func fmtMillis(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.0fms", ms)
	}
	return fmt.Sprintf("%.1fs", ms/1000)
}
