// Package probe captures live navigation-style timing by issuing a single
// timed GET request.
//
// Connection-phase callbacks from net/http/httptrace are mapped onto the
// milestone names the catalog knows, so a probe result feeds straight into
// the breakdown calculator. A reused connection produces no DNS or connect
// milestones; those fields stay zero and are dropped downstream, matching
// how an in-browser capture treats phases that did not occur.
//
// Redirects follow the PerformanceTiming model: the DNS, connect, request
// and response milestones describe the final fetch of the chain, while
// redirectStart/redirectEnd span the hops that preceded it.
package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/http2"

	"github.com/perfbreak/go-pagetiming/pkg/errors"
	"github.com/perfbreak/go-pagetiming/pkg/source"
)

// DefaultTimeout bounds the whole probe when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Options controls how the probe connects and which protocol it speaks.
type Options struct {
	// Timeout bounds the whole request including body drain.
	Timeout time.Duration

	// Protocol selects "http/1.1" (default) or "http/2".
	Protocol string

	// InsecureTLS skips certificate verification.
	InsecureTLS bool
}

// recorder collects milestone timestamps from trace callbacks. Hooks can
// fire on transport goroutines, so every write holds the mutex.
type recorder struct {
	mu sync.Mutex
	ts map[string]float64
}

func (r *recorder) mark(name string) {
	now := epochMillis(time.Now())
	r.mu.Lock()
	r.ts[name] = now
	r.mu.Unlock()
}

// redirect records the redirect interval. The chain starts where the
// fetch started; the end advances with each redirect response so the
// last hop wins.
func (r *recorder) redirect() {
	now := epochMillis(time.Now())
	r.mu.Lock()
	if _, ok := r.ts["redirectStart"]; !ok {
		r.ts["redirectStart"] = r.ts["fetchStart"]
	}
	r.ts["redirectEnd"] = now
	r.mu.Unlock()
}

func epochMillis(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e6
}

// Fetch issues one GET against target and returns the captured milestones
// as a timing source.
func Fetch(ctx context.Context, target string, opts Options) (source.MapSource, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.NewValidationError("probe target must be an absolute http(s) URL: " + target)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.NewValidationError("unsupported probe scheme: " + u.Scheme)
	}
	if opts.Protocol == "http/2" && u.Scheme != "https" {
		return nil, errors.NewValidationError("http/2 probes require an https target")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rec := &recorder{ts: make(map[string]float64)}

	// All hooks are last-wins: a redirect chain opens a new connection per
	// hop, and the connection milestones must describe the final fetch.
	trace := &httptrace.ClientTrace{
		DNSStart:          func(httptrace.DNSStartInfo) { rec.mark("domainLookupStart") },
		DNSDone:           func(httptrace.DNSDoneInfo) { rec.mark("domainLookupEnd") },
		ConnectStart:      func(string, string) { rec.mark("connectStart") },
		ConnectDone:       func(string, string, error) { rec.mark("connectEnd") },
		TLSHandshakeStart: func() { rec.mark("secureConnectionStart") },
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			// connectEnd includes the secure handshake, as in the
			// PerformanceTiming model.
			rec.mark("connectEnd")
		},
		GotConn:              func(httptrace.GotConnInfo) { rec.mark("requestStart") },
		GotFirstResponseByte: func() { rec.mark("responseStart") },
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.NewProbeError(target, err)
	}

	client := &http.Client{
		Transport: newTransport(opts),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			rec.redirect()
			return nil
		},
	}

	rec.mark("navigationStart")
	rec.mark("fetchStart")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewProbeError(target, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return nil, errors.NewProbeError(target, err)
	}
	rec.mark("responseEnd")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return source.MapSource(rec.ts), nil
}

// newTransport builds a fresh non-pooling transport so every probe pays
// the full DNS and connection cost it is trying to measure.
func newTransport(opts Options) http.RoundTripper {
	tlsCfg := &tls.Config{InsecureSkipVerify: opts.InsecureTLS}
	if opts.Protocol == "http/2" {
		return &http2.Transport{TLSClientConfig: tlsCfg}
	}
	return &http.Transport{
		TLSClientConfig:   tlsCfg,
		DisableKeepAlives: true,
		ForceAttemptHTTP2: false,
	}
}
