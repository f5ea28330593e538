// Package pagetiming computes human-readable breakdowns of page-load
// phases (network, server, browser) from navigation-style timing
// milestones.
//
// The calculator is a pure function of an injected timing source: it
// normalizes absolute timestamps into offsets from navigationStart,
// buckets milestones into phases by their position in a fixed catalog,
// and pairs Start/End milestones into labeled intervals. Sources can be
// plain maps, PerformanceTiming-shaped structs, or a live HTTP probe;
// renderers turn the result into text or an HTML overlay block.
package pagetiming

import (
	"context"
	"time"

	"github.com/perfbreak/go-pagetiming/pkg/breakdown"
	"github.com/perfbreak/go-pagetiming/pkg/catalog"
	"github.com/perfbreak/go-pagetiming/pkg/errors"
	"github.com/perfbreak/go-pagetiming/pkg/render"
	"github.com/perfbreak/go-pagetiming/pkg/source"
)

// Version is the current version of the pagetiming library
const Version = "1.0.0"

// GetVersion returns the current version of the library
func GetVersion() string {
	return Version
}

// Re-export key types for easier usage
type (
	// Report is the complete output of one computation.
	Report = breakdown.Report

	// Event is a captured milestone normalized against the origin.
	Event = breakdown.Event

	// PhaseSummary holds the computed bounds of one phase.
	PhaseSummary = breakdown.PhaseSummary

	// Row is one renderable Start/End interval.
	Row = breakdown.Row

	// Renderer consumes a computed report.
	Renderer = breakdown.Renderer

	// Source exposes named absolute timestamps in milliseconds.
	Source = source.Source

	// MapSource is a plain name-to-timestamp map Source.
	MapSource = source.MapSource

	// NavigationTiming mirrors the W3C PerformanceTiming attributes.
	NavigationTiming = source.NavigationTiming

	// Phase identifies one of the three page-load phases.
	Phase = catalog.Phase

	// Error represents a structured error with context information.
	Error = errors.Error
)

// Re-export phase names for convenience
const (
	PhaseNetwork = catalog.PhaseNetwork
	PhaseServer  = catalog.PhaseServer
	PhaseBrowser = catalog.PhaseBrowser
)

// Compute reads the timing source once and returns the full breakdown.
// A nil source yields an unsupported-environment error.
func Compute(src Source) (*Report, error) {
	return breakdown.Compute(src)
}

// RunAfter defers the computation by delay, then renders the result into
// each renderer. A non-positive delay runs synchronously.
func RunAfter(ctx context.Context, delay time.Duration, src Source, renderers ...Renderer) (*Report, error) {
	return breakdown.RunAfter(ctx, delay, src, renderers...)
}

// IsUnsupported checks if an error signals an unsupported environment.
func IsUnsupported(err error) bool {
	return errors.IsUnsupported(err)
}

// NotSupportedNotice is the text shown when no timing data is available.
const NotSupportedNotice = render.NotSupportedNotice
