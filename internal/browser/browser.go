// Package browser defines the boundary to the rendering/navigation engine
// and provides a Playwright-backed implementation.
//
// The rest of the codebase depends only on the interfaces here; tests drive
// the pipeline with fakes.
package browser

import (
	"context"
	"time"
)

// ResourceType classifies an intercepted request.
type ResourceType string

const (
	ResourceDocument ResourceType = "document"
	ResourceImage    ResourceType = "image"
	ResourceFont     ResourceType = "font"
	ResourceMedia    ResourceType = "media"
)

// Request describes one intercepted request on the resolver page.
type Request struct {
	URL  string
	Type ResourceType
}

// Decision is the interception verdict for a request.
type Decision int

const (
	Allow Decision = iota
	Abort
)

// RouteHandler classifies every request on the resolver page. Aborting the
// page-defining request of an external destination is the normal way a
// resolution terminates, not an error.
type RouteHandler func(Request) Decision

// Element is a DOM node handle. Accessors never propagate engine errors: a
// missing node or attribute yields an empty string.
type Element interface {
	// Text returns the trimmed inner text of the first node matching
	// selector below this element, or the element's own text when selector
	// is empty.
	Text(selector string) string

	// Attr returns the trimmed attribute value of the first node matching
	// selector below this element.
	Attr(selector, name string) string

	// Elements returns all nodes matching selector below this element.
	Elements(selector string) []Element
}

// Page is the navigation surface of one browser tab.
type Page interface {
	// Goto navigates to url and waits for the DOM to be ready, up to
	// timeout.
	Goto(url string, timeout time.Duration) error

	// URL returns the page's current address.
	URL() string

	// Fill types value into the first node matching selector.
	Fill(selector, value string) error

	// Click clicks the first node matching selector.
	Click(selector string) error

	// WaitForSelector blocks until selector matches, up to timeout.
	WaitForSelector(selector string, timeout time.Duration) error

	// WaitFor pauses for the given duration on the page's own timeline.
	WaitFor(d time.Duration)

	// Elements returns all nodes matching selector.
	Elements(selector string) []Element
}

// Engine owns the browser session: a primary page for the feed and an
// isolated secondary page for link resolution.
type Engine interface {
	// Start launches the browser and creates both pages.
	Start(ctx context.Context) error

	// FeedPage returns the primary scanning page. Valid after Start.
	FeedPage() Page

	// ResolverPage returns the isolated resolution page. Valid after Start.
	ResolverPage() Page

	// RouteResolver installs the interception handler on the resolver page.
	RouteResolver(handler RouteHandler) error

	// Close tears the session down, best effort. Safe to call repeatedly.
	Close()
}
