package breakdown

import (
	"context"
	"testing"
	"time"

	"github.com/perfbreak/go-pagetiming/pkg/catalog"
	"github.com/perfbreak/go-pagetiming/pkg/errors"
	"github.com/perfbreak/go-pagetiming/pkg/source"
)

const origin = 1700000000000.0

func TestOffsetsRelativeToNavigationStart(t *testing.T) {
	src := source.MapSource{
		"navigationStart": origin,
		"fetchStart":      origin + 50,
		"responseEnd":     origin + 340,
		"domComplete":     origin + 120,
	}

	report, err := Compute(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := map[string]float64{
		"navigationStart": 0,
		"fetchStart":      50,
		"responseEnd":     340,
		"domComplete":     120,
	}
	for name, want := range checks {
		ev, ok := report.Events[name]
		if !ok {
			t.Fatalf("event %s missing", name)
		}
		if ev.Time != want {
			t.Errorf("event %s: time = %v, want %v", name, ev.Time, want)
		}
	}

	if report.TotalTime != 340 {
		t.Errorf("total time = %v, want 340", report.TotalTime)
	}
	if report.ID == "" {
		t.Error("report ID should be set")
	}
}

func TestZeroAndNegativeFieldsDropped(t *testing.T) {
	src := source.MapSource{
		"navigationStart": origin,
		"redirectStart":   0,
		"redirectEnd":     -1,
		"fetchStart":      origin + 10,
	}

	report, err := Compute(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := report.Events["redirectStart"]; ok {
		t.Error("zero-valued redirectStart should be dropped")
	}
	if _, ok := report.Events["redirectEnd"]; ok {
		t.Error("negative redirectEnd should be dropped")
	}
	if len(report.Events) != 2 {
		t.Errorf("expected 2 events, got %d", len(report.Events))
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	src := source.MapSource{
		"navigationStart": origin,
		"notAMilestone":   origin + 999,
	}

	report, err := Compute(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := report.Events["notAMilestone"]; ok {
		t.Error("unknown field should not be captured")
	}
	if report.TotalTime != 0 {
		t.Errorf("total time = %v, want 0", report.TotalTime)
	}
}

func TestMissingOriginDefaultsToZero(t *testing.T) {
	src := source.MapSource{"fetchStart": 25, "responseEnd": 75}

	report, err := Compute(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev := report.Events["fetchStart"]; ev.Time != 25 {
		t.Errorf("fetchStart time = %v, want 25 (raw value with origin 0)", ev.Time)
	}
}

func TestPhaseBounds(t *testing.T) {
	src := source.MapSource{
		"navigationStart": origin,
		"requestStart":    origin + 100,
		"responseEnd":     origin + 250,
	}

	report, err := Compute(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var server PhaseSummary
	found := false
	for _, p := range report.Phases {
		if p.Name == catalog.PhaseServer {
			server = p
			found = true
		}
	}
	if !found {
		t.Fatal("server phase missing from report")
	}
	if server.Absent {
		t.Fatal("server phase should not be absent")
	}
	if server.StartTime != 100 || server.EndTime != 250 {
		t.Errorf("server bounds = [%v, %v], want [100, 250]", server.StartTime, server.EndTime)
	}

	if report.Events["requestStart"].Phase != catalog.PhaseServer {
		t.Errorf("requestStart tagged %q, want server", report.Events["requestStart"].Phase)
	}
	if report.Events["responseEnd"].Phase != catalog.PhaseServer {
		t.Errorf("responseEnd tagged %q, want server", report.Events["responseEnd"].Phase)
	}
}

func TestEmptyPhaseMarkedAbsent(t *testing.T) {
	// Only network-range milestones present: server and browser are empty.
	src := source.MapSource{
		"navigationStart": origin,
		"connectEnd":      origin + 80,
	}

	report, err := Compute(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, p := range report.Phases {
		switch p.Name {
		case catalog.PhaseNetwork:
			if p.Absent {
				t.Error("network phase should be present")
			}
		case catalog.PhaseServer, catalog.PhaseBrowser:
			if !p.Absent {
				t.Errorf("%s phase should be absent", p.Name)
			}
			if p.StartTime != 0 || p.EndTime != 0 {
				t.Errorf("%s bounds = [%v, %v], want zero", p.Name, p.StartTime, p.EndTime)
			}
		}
	}
}

func TestStartEndPairing(t *testing.T) {
	src := source.MapSource{
		"navigationStart":   origin,
		"domainLookupStart": origin + 10,
		"domainLookupEnd":   origin + 40,
	}

	report, err := Compute(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(report.Rows))
	}
	row := report.Rows[0]
	if row.Label != "domainLookup" {
		t.Errorf("row label = %q, want domainLookup", row.Label)
	}
	if row.StartOffset != 10 || row.EndOffset != 40 {
		t.Errorf("row offsets = [%v, %v], want [10, 40]", row.StartOffset, row.EndOffset)
	}
	if row.Phase != catalog.PhaseNetwork {
		t.Errorf("row phase = %q, want network", row.Phase)
	}

	ev := report.Events["domainLookupStart"]
	if !ev.Paired || ev.Label != "domainLookup" || ev.TimeEnd != 40 {
		t.Errorf("start event not annotated: %+v", ev)
	}
}

func TestUnpairedStartEmitsNoRow(t *testing.T) {
	src := source.MapSource{
		"navigationStart":   origin,
		"domainLookupStart": origin + 10,
	}

	report, err := Compute(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Rows) != 0 {
		t.Errorf("expected no rows, got %v", report.Rows)
	}
	// The unpaired milestone still participates in phase bounds.
	for _, p := range report.Phases {
		if p.Name == catalog.PhaseNetwork && p.Absent {
			t.Error("network phase should still be present")
		}
	}
}

func TestStartWithoutCatalogEndEmitsNoRow(t *testing.T) {
	// secureConnectionStart has no End counterpart in the catalog at all.
	src := source.MapSource{
		"navigationStart":       origin,
		"secureConnectionStart": origin + 30,
	}

	report, err := Compute(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Rows) != 0 {
		t.Errorf("expected no rows, got %v", report.Rows)
	}
}

func TestRowsFollowCatalogOrderNotTimeOrder(t *testing.T) {
	// redirect precedes domainLookup in the catalog; give it later times
	// so chronological order would reverse the rows.
	src := source.MapSource{
		"navigationStart":   origin,
		"redirectStart":     origin + 500,
		"redirectEnd":       origin + 600,
		"domainLookupStart": origin + 10,
		"domainLookupEnd":   origin + 40,
	}

	report, err := Compute(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(report.Rows))
	}
	if report.Rows[0].Label != "redirect" || report.Rows[1].Label != "domainLookup" {
		t.Errorf("rows out of catalog order: %q then %q", report.Rows[0].Label, report.Rows[1].Label)
	}
}

func TestApplyPhaseColors(t *testing.T) {
	src := source.MapSource{
		"navigationStart":   origin,
		"domainLookupStart": origin + 10,
		"domainLookupEnd":   origin + 40,
		"requestStart":      origin + 100,
		"responseEnd":       origin + 250,
	}

	report, err := Compute(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report.ApplyPhaseColors(map[string]string{"network": "#123456"})

	for _, p := range report.Phases {
		switch p.Name {
		case catalog.PhaseNetwork:
			if p.Color != "#123456" {
				t.Errorf("network color = %q, want override", p.Color)
			}
		case catalog.PhaseServer:
			r, _ := catalog.RangeOf(catalog.PhaseServer)
			if p.Color != r.Color {
				t.Errorf("server color = %q, want catalog default %q", p.Color, r.Color)
			}
		}
	}

	if len(report.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(report.Rows))
	}
	if report.Rows[0].Color != "#123456" {
		t.Errorf("row color = %q, want override", report.Rows[0].Color)
	}

	// Empty and unknown entries leave colors untouched.
	report.ApplyPhaseColors(map[string]string{"network": "", "bogus": "#fff"})
	if report.Rows[0].Color != "#123456" {
		t.Errorf("row color = %q after no-op override", report.Rows[0].Color)
	}
}

func TestNilSourceIsUnsupported(t *testing.T) {
	report, err := Compute(nil)
	if report != nil {
		t.Error("expected nil report for unsupported environment")
	}
	if !errors.IsUnsupported(err) {
		t.Errorf("expected unsupported error, got %v", err)
	}
}

func TestRunAfterSynchronous(t *testing.T) {
	src := source.MapSource{"navigationStart": origin, "fetchStart": origin + 5}

	var rendered *Report
	sink := renderFunc(func(r *Report) error { rendered = r; return nil })

	report, err := RunAfter(context.Background(), 0, src, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rendered != report {
		t.Error("renderer did not receive the computed report")
	}
}

func TestRunAfterDefersAndHonorsCancel(t *testing.T) {
	src := source.MapSource{"navigationStart": origin}

	start := time.Now()
	if _, err := RunAfter(context.Background(), 20*time.Millisecond, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("computation ran after %v, want at least 20ms", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RunAfter(ctx, time.Minute, src); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type renderFunc func(*Report) error

func (f renderFunc) Render(r *Report) error { return f(r) }
