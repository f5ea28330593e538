// Package source abstracts where navigation-timing timestamps come from.
//
// A Source yields absolute timestamps in milliseconds keyed by milestone
// name. The breakdown package normalizes them against navigationStart; it
// never reads the environment directly, so any Source implementation makes
// the calculator fully testable.
package source

import "reflect"

// Source exposes named absolute timestamps in milliseconds.
type Source interface {
	Timestamps() map[string]float64
}

// MapSource is the simplest Source: a plain name-to-timestamp map.
type MapSource map[string]float64

// Timestamps returns a copy of the underlying map.
func (m MapSource) Timestamps() map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// NavigationTiming mirrors the W3C PerformanceTiming attributes as struct
// fields. Zero fields mean the milestone did not occur.
type NavigationTiming struct {
	NavigationStart            float64 `json:"navigation_start"`
	RedirectStart              float64 `json:"redirect_start"`
	RedirectEnd                float64 `json:"redirect_end"`
	FetchStart                 float64 `json:"fetch_start"`
	DomainLookupStart          float64 `json:"domain_lookup_start"`
	DomainLookupEnd            float64 `json:"domain_lookup_end"`
	ConnectStart               float64 `json:"connect_start"`
	SecureConnectionStart      float64 `json:"secure_connection_start"`
	ConnectEnd                 float64 `json:"connect_end"`
	RequestStart               float64 `json:"request_start"`
	ResponseStart              float64 `json:"response_start"`
	ResponseEnd                float64 `json:"response_end"`
	UnloadEventStart           float64 `json:"unload_event_start"`
	UnloadEventEnd             float64 `json:"unload_event_end"`
	DomLoading                 float64 `json:"dom_loading"`
	DomInteractive             float64 `json:"dom_interactive"`
	DomContentLoadedEventStart float64 `json:"dom_content_loaded_event_start"`
	DomContentLoadedEventEnd   float64 `json:"dom_content_loaded_event_end"`
	DomComplete                float64 `json:"dom_complete"`
	LoadEventStart             float64 `json:"load_event_start"`
	LoadEventEnd               float64 `json:"load_event_end"`
}

// Timestamps collects all float64 fields by reflection, including fields
// promoted from embedded structs, so wrapper types that embed
// NavigationTiming still expose every milestone.
func (nt NavigationTiming) Timestamps() map[string]float64 {
	out := make(map[string]float64)
	collectFields(reflect.ValueOf(nt), out)
	return out
}

func collectFields(v reflect.Value, out map[string]float64) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectFields(v.Field(i), out)
			continue
		}
		if f.Type.Kind() != reflect.Float64 || !f.IsExported() {
			continue
		}
		out[milestoneName(f.Name)] = v.Field(i).Float()
	}
}

// milestoneName converts an exported Go field name to the camelCase
// milestone name used by the catalog (RedirectStart -> redirectStart).
func milestoneName(field string) string {
	if field == "" {
		return field
	}
	return string(field[0]|0x20) + field[1:]
}
