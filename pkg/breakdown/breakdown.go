// Package breakdown computes a page-load phase breakdown from a timing
// source.
//
// The calculator normalizes absolute milestone timestamps into offsets
// relative to navigationStart, assigns milestones to the network, server
// and browser phases by their catalog position, and pairs ...Start/...End
// milestones into labeled rows. Milestones without a well-formed End
// counterpart participate in phase bounds but produce no row; that
// asymmetry matches the overlay this package replaces and is deliberate.
package breakdown

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/perfbreak/go-pagetiming/pkg/catalog"
	"github.com/perfbreak/go-pagetiming/pkg/errors"
	"github.com/perfbreak/go-pagetiming/pkg/source"
)

// Event is a captured milestone normalized against the origin.
type Event struct {
	// Name is the milestone name from the catalog.
	Name string `json:"name"`

	// Time is the offset in milliseconds relative to navigationStart.
	Time float64 `json:"time"`

	// Label is the base name when this is the Start half of a paired
	// interval ("domainLookup" for domainLookupStart).
	Label string `json:"label,omitempty"`

	// TimeEnd is the offset of the paired End milestone. Only meaningful
	// when Paired is true.
	TimeEnd float64 `json:"time_end,omitempty"`

	// Paired reports whether Label and TimeEnd are set.
	Paired bool `json:"paired,omitempty"`

	// Phase is the phase this milestone falls into, empty if its catalog
	// position is outside every phase range.
	Phase catalog.Phase `json:"phase,omitempty"`
}

// PhaseSummary holds the computed bounds of one phase.
type PhaseSummary struct {
	Name  catalog.Phase `json:"name"`
	Color string        `json:"color"`

	// StartTime and EndTime are the min and max offsets among captured
	// milestones in the phase's catalog range. Both stay zero when the
	// phase is absent.
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`

	// Absent reports that no captured milestone fell into this phase.
	Absent bool `json:"absent,omitempty"`
}

// Row is one renderable interval: a Start/End milestone pair collapsed
// into a labeled time range.
type Row struct {
	Label       string        `json:"label"`
	Phase       catalog.Phase `json:"phase"`
	Color       string        `json:"color"`
	StartOffset float64       `json:"start_offset"`
	EndOffset   float64       `json:"end_offset"`
}

// Report is the complete output of one computation.
type Report struct {
	ID         string            `json:"id"`
	CapturedAt time.Time         `json:"captured_at"`
	TotalTime  float64           `json:"total_time"`
	Events     map[string]*Event `json:"events"`
	Phases     []PhaseSummary    `json:"phases"`
	Rows       []Row             `json:"rows"`
}

// ApplyPhaseColors overrides the display color of the named phases on the
// phase summaries and rows. Phases not in the map keep their catalog
// defaults; empty values are ignored.
func (r *Report) ApplyPhaseColors(colors map[string]string) {
	if len(colors) == 0 {
		return
	}
	for i := range r.Phases {
		if c := colors[string(r.Phases[i].Name)]; c != "" {
			r.Phases[i].Color = c
		}
	}
	for i := range r.Rows {
		if c := colors[string(r.Rows[i].Phase)]; c != "" {
			r.Rows[i].Color = c
		}
	}
}

// Renderer consumes a computed report. Implementations live in the render
// package; anything that can display an ordered row list qualifies.
type Renderer interface {
	Render(*Report) error
}

// Compute reads the timing source once and returns the full breakdown.
// A nil source signals an unsupported environment.
func Compute(src source.Source) (*Report, error) {
	if src == nil {
		return nil, errors.NewUnsupportedError()
	}

	report := &Report{
		ID:         uuid.NewString(),
		CapturedAt: time.Now(),
		Events:     captureEvents(src),
	}
	for _, ev := range report.Events {
		if ev.Time > report.TotalTime {
			report.TotalTime = ev.Time
		}
	}

	report.Phases = matchPhases(report.Events)
	report.Rows = buildRows(report.Events)
	return report, nil
}

// RunAfter waits delay, then computes the breakdown and feeds it to each
// renderer. A non-positive delay runs synchronously. The wait is a single
// deferred invocation; ctx only cancels the wait itself.
func RunAfter(ctx context.Context, delay time.Duration, src source.Source, renderers ...Renderer) (*Report, error) {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	report, err := Compute(src)
	if err != nil {
		return nil, err
	}
	for _, r := range renderers {
		if err := r.Render(report); err != nil {
			return report, err
		}
	}
	return report, nil
}

// captureEvents reads the source and keeps every known milestone with a
// positive timestamp, normalized against navigationStart. Zero or negative
// values mean the milestone did not occur and are dropped.
func captureEvents(src source.Source) map[string]*Event {
	raw := src.Timestamps()

	origin := 0.0
	if v, ok := raw["navigationStart"]; ok && v > 0 {
		origin = v
	}

	events := make(map[string]*Event)
	for _, name := range catalog.Names() {
		v, ok := raw[name]
		if !ok || v <= 0 {
			continue
		}
		events[name] = &Event{Name: name, Time: v - origin}
	}
	return events
}

// matchPhases tags each captured milestone with its phase and computes the
// phase bounds from the captured milestones inside each catalog range.
func matchPhases(events map[string]*Event) []PhaseSummary {
	names := catalog.Names()
	summaries := make([]PhaseSummary, 0, len(catalog.Ranges()))

	for _, r := range catalog.Ranges() {
		var present []*Event
		for i := r.First; i <= r.Last; i++ {
			if ev, ok := events[names[i]]; ok {
				present = append(present, ev)
			}
		}
		sort.Slice(present, func(i, j int) bool { return present[i].Time < present[j].Time })

		summary := PhaseSummary{Name: r.Phase, Color: r.Color}
		if len(present) == 0 {
			summary.Absent = true
		} else {
			summary.StartTime = present[0].Time
			summary.EndTime = present[len(present)-1].Time
			for _, ev := range present {
				ev.Phase = r.Phase
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// buildRows walks the catalog in its fixed order and emits one row per
// well-formed Start/End pair. The End half is consumed so it never appears
// as a separate row; milestones without a captured counterpart emit
// nothing.
func buildRows(events map[string]*Event) []Row {
	consumed := make(map[string]bool)
	var rows []Row

	for _, name := range catalog.Names() {
		ev, ok := events[name]
		if !ok || consumed[name] {
			continue
		}
		if !strings.HasSuffix(name, "Start") {
			continue
		}

		base := strings.TrimSuffix(name, "Start")
		endName := base + "End"
		if !catalog.Has(endName) {
			continue
		}
		endEv, ok := events[endName]
		if !ok {
			continue
		}

		ev.Label = base
		ev.TimeEnd = endEv.Time
		ev.Paired = true
		consumed[endName] = true

		row := Row{
			Label:       base,
			Phase:       ev.Phase,
			StartOffset: ev.Time,
			EndOffset:   endEv.Time,
		}
		if r, ok := catalog.RangeOf(ev.Phase); ok {
			row.Color = r.Color
		}
		rows = append(rows, row)
	}
	return rows
}
