package render

import (
	"html/template"
	"io"

	"github.com/perfbreak/go-pagetiming/pkg/breakdown"
)

// HTMLRenderer writes a self-contained overlay block: one horizontal bar
// per interval, positioned by its share of the total load time.
type HTMLRenderer struct {
	W io.Writer

	// Title is shown above the chart; defaults to "Page load breakdown".
	Title string
}

// NewHTMLRenderer returns an HTML renderer writing to w.
func NewHTMLRenderer(w io.Writer) *HTMLRenderer {
	return &HTMLRenderer{W: w}
}

var funcMap = template.FuncMap{
	"fmtMillis": fmtMillis,
	"minus":     func(a, b float64) float64 { return a - b },
	"pct": func(part, total float64) float64 {
		if total <= 0 {
			return 0
		}
		return part / total * 100
	},
}

var overlayTmpl = template.Must(template.New("overlay").Funcs(funcMap).Parse(`<div class="pagetiming-overlay" style="font:12px/1.5 monospace;background:#111827;color:#e5e7eb;padding:12px;border-radius:6px">
<div style="font-weight:bold;margin-bottom:8px">{{.Title}} &mdash; total {{fmtMillis .Report.TotalTime}}</div>
{{- $total := .Report.TotalTime}}
{{- range .Report.Rows}}
<div style="display:flex;align-items:center;margin:2px 0">
  <span style="width:180px">{{.Label}}</span>
  <span style="flex:1;position:relative;height:12px;background:#1f2937">
    <span title="{{.Label}}: {{fmtMillis .StartOffset}} &rarr; {{fmtMillis .EndOffset}}" style="position:absolute;height:12px;background:{{.Color}};left:{{printf "%.2f" (pct .StartOffset $total)}}%;width:{{printf "%.2f" (pct (minus .EndOffset .StartOffset) $total)}}%"></span>
  </span>
  <span style="width:70px;text-align:right">{{fmtMillis (minus .EndOffset .StartOffset)}}</span>
</div>
{{- end}}
<div style="margin-top:8px">
{{- range .Report.Phases}}{{if not .Absent}}
  <span style="margin-right:12px"><span style="display:inline-block;width:10px;height:10px;background:{{.Color}}"></span> {{.Name}} {{fmtMillis .StartTime}}&ndash;{{fmtMillis .EndTime}}</span>
{{- end}}{{end}}
</div>
</div>
`))

var noticeTmpl = template.Must(template.New("notice").Parse(`<div class="pagetiming-overlay" style="font:12px/1.5 monospace;background:#111827;color:#e5e7eb;padding:12px;border-radius:6px">{{.}}</div>
`))

// Render writes the overlay block. A nil report degrades to a static
// not-supported notice instead of a chart.
func (r *HTMLRenderer) Render(report *breakdown.Report) error {
	if report == nil {
		return noticeTmpl.Execute(r.W, NotSupportedNotice)
	}
	title := r.Title
	if title == "" {
		title = "Page load breakdown"
	}
	return overlayTmpl.Execute(r.W, struct {
		Title  string
		Report *breakdown.Report
	}{title, report})
}
