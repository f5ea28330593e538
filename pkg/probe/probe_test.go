package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/perfbreak/go-pagetiming/pkg/breakdown"
	"github.com/perfbreak/go-pagetiming/pkg/errors"
)

func TestFetchCapturesMilestones(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	src, err := Fetch(context.Background(), srv.URL, Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	ts := src.Timestamps()
	for _, name := range []string{
		"navigationStart", "fetchStart", "connectStart", "connectEnd",
		"requestStart", "responseStart", "responseEnd",
	} {
		if v, ok := ts[name]; !ok || v <= 0 {
			t.Errorf("milestone %s missing or non-positive: %v", name, v)
		}
	}

	// No TLS against a plain-HTTP test server.
	if _, ok := ts["secureConnectionStart"]; ok {
		t.Error("secureConnectionStart should not be set for http")
	}

	if ts["responseStart"] >= ts["responseEnd"] {
		t.Errorf("responseStart (%v) should precede responseEnd (%v)", ts["responseStart"], ts["responseEnd"])
	}
	if ts["navigationStart"] > ts["responseEnd"] {
		t.Error("navigationStart should precede responseEnd")
	}
}

func TestFetchFeedsBreakdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	src, err := Fetch(context.Background(), srv.URL, Options{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	report, err := breakdown.Compute(src)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if report.TotalTime <= 0 {
		t.Errorf("total time = %v, want > 0", report.TotalTime)
	}
	if ev, ok := report.Events["navigationStart"]; !ok || ev.Time != 0 {
		t.Error("navigationStart should be the zero-offset origin")
	}
	// connect and domainLookup pairs should become rows when captured.
	if _, ok := report.Events["connectStart"]; ok && len(report.Rows) == 0 {
		t.Error("expected at least one paired row from a fresh connection")
	}
}

func TestFetchRedirectUsesFinalConnection(t *testing.T) {
	const hopDelay = 120 * time.Millisecond

	mux := http.NewServeMux()
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("done"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(hopDelay)
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src, err := Fetch(context.Background(), srv.URL, Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	ts := src.Timestamps()

	// The redirect interval spans the slow first hop.
	if ts["redirectStart"] != ts["fetchStart"] {
		t.Errorf("redirectStart = %v, want fetchStart (%v)", ts["redirectStart"], ts["fetchStart"])
	}
	if d := ts["redirectEnd"] - ts["redirectStart"]; d < float64(hopDelay.Milliseconds()) {
		t.Errorf("redirect interval = %vms, should cover the %v first hop", d, hopDelay)
	}

	// Connection milestones describe the final fetch only: a localhost
	// connect takes nowhere near the first hop's server delay.
	if d := ts["connectEnd"] - ts["connectStart"]; d < 0 || d >= float64(hopDelay.Milliseconds()) {
		t.Errorf("connect interval = %vms, should not absorb the first hop", d)
	}
	if ts["connectStart"] < ts["redirectEnd"] {
		t.Errorf("connectStart (%v) should come from the connection opened after the last redirect (%v)", ts["connectStart"], ts["redirectEnd"])
	}
	if ts["requestStart"] < ts["redirectEnd"] {
		t.Errorf("requestStart (%v) should come from the final request (redirectEnd %v)", ts["requestStart"], ts["redirectEnd"])
	}

	// The breakdown gains a redirect row from the captured pair.
	report, err := breakdown.Compute(src)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	hasRedirect := false
	for _, row := range report.Rows {
		if row.Label == "redirect" {
			hasRedirect = true
		}
	}
	if !hasRedirect {
		t.Errorf("expected a redirect row, got %+v", report.Rows)
	}
}

func TestFetchRejectsBadTargets(t *testing.T) {
	cases := []struct {
		name   string
		target string
		opts   Options
	}{
		{"relative URL", "/no-scheme", Options{}},
		{"bad scheme", "ftp://example.com", Options{}},
		{"h2 over plain http", "http://example.com", Options{Protocol: "http/2"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Fetch(context.Background(), c.target, c.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			var e *errors.Error
			if !asError(err, &e) || e.Kind != errors.KindValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestFetchWrapsTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := Fetch(context.Background(), srv.URL, Options{Timeout: time.Second})
	if err == nil {
		t.Fatal("expected error against closed server")
	}
	var e *errors.Error
	if !asError(err, &e) || e.Kind != errors.KindProbe {
		t.Errorf("expected probe error, got %v", err)
	}
}

func asError(err error, target **errors.Error) bool {
	e, ok := err.(*errors.Error)
	if ok {
		*target = e
	}
	return ok
}
