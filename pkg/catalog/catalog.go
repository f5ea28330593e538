// Package catalog defines the fixed, ordered list of navigation milestones
// and the phase ranges computed over it.
package catalog

// Phase identifies one of the three page-load phases.
type Phase string

const (
	// PhaseNetwork covers redirect, DNS and connection establishment.
	PhaseNetwork Phase = "network"
	// PhaseServer covers request transmission and response delivery.
	PhaseServer Phase = "server"
	// PhaseBrowser covers document parsing and load event dispatch.
	PhaseBrowser Phase = "browser"
)

// names is the authoritative milestone order. Phase membership is defined
// purely as index ranges over this list, so the order must not change
// without revisiting the phase boundaries below.
var names = []string{
	"navigationStart",
	"redirectStart",
	"redirectEnd",
	"fetchStart",
	"domainLookupStart",
	"domainLookupEnd",
	"connectStart",
	"secureConnectionStart",
	"connectEnd",
	"requestStart",
	"responseStart",
	"responseEnd",
	"unloadEventStart",
	"unloadEventEnd",
	"domLoading",
	"domInteractive",
	"domContentLoadedEventStart",
	"domContentLoadedEventEnd",
	"domComplete",
	"loadEventStart",
	"loadEventEnd",
}

// Range is a phase with its display color and the catalog index range
// (inclusive) of the milestones belonging to it.
type Range struct {
	Phase Phase
	Color string
	First int
	Last  int
}

// phaseBounds names the boundary milestones of each phase. Indices are
// resolved at init so a catalog reordering cannot silently desynchronize
// the ranges.
var phaseBounds = []struct {
	phase Phase
	color string
	first string
	last  string
}{
	{PhaseNetwork, "#3b82f6", "navigationStart", "connectEnd"},
	{PhaseServer, "#10b981", "requestStart", "responseEnd"},
	{PhaseBrowser, "#f59e0b", "unloadEventStart", "loadEventEnd"},
}

var (
	indexByName map[string]int
	ranges      []Range
)

func init() {
	indexByName = make(map[string]int, len(names))
	for i, n := range names {
		if _, ok := indexByName[n]; ok {
			panic("catalog: duplicate milestone name " + n)
		}
		indexByName[n] = i
	}

	ranges = make([]Range, 0, len(phaseBounds))
	for _, b := range phaseBounds {
		first, ok := indexByName[b.first]
		if !ok {
			panic("catalog: unknown phase boundary " + b.first)
		}
		last, ok := indexByName[b.last]
		if !ok {
			panic("catalog: unknown phase boundary " + b.last)
		}
		ranges = append(ranges, Range{Phase: b.phase, Color: b.color, First: first, Last: last})
	}
}

// Names returns the milestone names in catalog order.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Len returns the number of catalog entries.
func Len() int {
	return len(names)
}

// Index returns the catalog position of a milestone name, or -1 if the
// name is not a known milestone.
func Index(name string) int {
	if i, ok := indexByName[name]; ok {
		return i
	}
	return -1
}

// Has reports whether name is a known milestone.
func Has(name string) bool {
	_, ok := indexByName[name]
	return ok
}

// Ranges returns the phase ranges in catalog order.
func Ranges() []Range {
	out := make([]Range, len(ranges))
	copy(out, ranges)
	return out
}

// RangeOf returns the range for a phase.
func RangeOf(p Phase) (Range, bool) {
	for _, r := range ranges {
		if r.Phase == p {
			return r, true
		}
	}
	return Range{}, false
}
