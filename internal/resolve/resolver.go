// Package resolve determines the true external destination of a redirect
// reference without completing navigation to it.
//
// The resolver is lent an isolated page whose requests are routed through
// HandleRequest. Document navigations that stay on the known source host are
// allowed so the redirect chain continues; the first document navigation
// that leaves it is the resolved destination — its URL is captured and the
// request aborted, so the destination never observes a real visit. Heavy
// resources are aborted unconditionally to shorten resolution latency.
package resolve

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arbscan/arbscan/internal/browser"
	"github.com/arbscan/arbscan/internal/logger"
)

const pollInterval = 100 * time.Millisecond

// capture is the single-slot cell holding one attempt's result. First
// writer wins.
type capture struct {
	mu  sync.Mutex
	url string
}

func (c *capture) trySet(u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.url == "" {
		c.url = u
	}
}

func (c *capture) get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// NavigationPage is the slice of the resolver page the resolver drives.
type NavigationPage interface {
	Goto(url string, timeout time.Duration) error
}

// Resolver resolves redirect references against a single lent page. Only
// one resolution may be in flight at a time: the page and its active
// navigation are shared mutable state.
type Resolver struct {
	page       NavigationPage
	sourceHost string
	mirrors    map[string]string
	timeout    time.Duration

	mu     sync.Mutex // serializes Resolve calls
	active atomic.Pointer[capture]
}

// New creates a Resolver. sourceHost is the aggregator's own host (document
// requests on it or its subdomains are allowed through); mirrors maps a
// canonical destination host to a substitute host, both lowercase.
func New(page NavigationPage, sourceHost string, mirrors map[string]string, timeout time.Duration) *Resolver {
	return &Resolver{
		page:       page,
		sourceHost: strings.ToLower(sourceHost),
		mirrors:    mirrors,
		timeout:    timeout,
	}
}

// HandleRequest is the interception policy. It is installed on the lent
// page's route hook and may be called from the engine's event goroutine.
func (r *Resolver) HandleRequest(req browser.Request) browser.Decision {
	switch req.Type {
	case browser.ResourceDocument:
		if r.isSourceHost(req.URL) {
			return browser.Allow
		}
		// The redirect chain left the source: this is the destination.
		if c := r.active.Load(); c != nil {
			c.trySet(req.URL)
		}
		return browser.Abort
	case browser.ResourceImage, browser.ResourceFont, browser.ResourceMedia:
		return browser.Abort
	default:
		return browser.Allow
	}
}

// Resolve navigates the lent page toward ref and returns the captured
// external destination, with any configured mirror substitution applied. It
// returns "", false when nothing escapes the source host before the timeout.
// A navigation error on the aborted request is the expected terminal signal
// and is swallowed.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, bool) {
	if strings.TrimSpace(ref) == "" {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := &capture{}
	r.active.Store(c)
	defer r.active.Store(nil)

	if err := r.page.Goto(ref, r.timeout); err != nil {
		logger.Debug("resolver navigation ended: %v", err)
	}

	deadline := time.Now().Add(r.timeout)
	for {
		if u := c.get(); u != "" {
			return r.RewriteMirror(u), true
		}
		if time.Now().After(deadline) {
			return "", false
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(pollInterval):
		}
	}
}

// RewriteMirror substitutes a configured mirror host when the URL's host
// exactly matches a canonical domain, case-insensitively. Path, query and
// fragment are preserved; any other host is returned unchanged.
func (r *Resolver) RewriteMirror(raw string) string {
	if len(r.mirrors) == 0 {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	mirror, ok := r.mirrors[strings.ToLower(u.Hostname())]
	if !ok {
		return raw
	}
	u.Host = mirror
	return u.String()
}

func (r *Resolver) isSourceHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == r.sourceHost || strings.HasSuffix(host, "."+r.sourceHost)
}
