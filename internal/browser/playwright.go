package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/arbscan/arbscan/internal/logger"
)

// How long element accessors wait before treating a node as missing.
const elementTimeout = 2 * time.Second

// Options configures the Playwright engine.
type Options struct {
	Headless       bool
	NavTimeout     time.Duration
	ResolveTimeout time.Duration
}

// Playwright drives a Chromium session with two pages: the feed page and an
// isolated resolver page.
type Playwright struct {
	opts Options

	pw       *playwright.Playwright
	browser  playwright.Browser
	context  playwright.BrowserContext
	feed     playwright.Page
	resolver playwright.Page
}

// NewPlaywright creates an engine with the given options. The browser is not
// launched until Start.
func NewPlaywright(opts Options) *Playwright {
	return &Playwright{opts: opts}
}

// Start implements Engine.
func (e *Playwright) Start(_ context.Context) error {
	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	e.pw = pw

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(e.opts.Headless),
	})
	if err != nil {
		e.Close()
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	e.browser = browser

	bctx, err := browser.NewContext()
	if err != nil {
		e.Close()
		return fmt.Errorf("failed to create browser context: %w", err)
	}
	e.context = bctx

	if e.feed, err = bctx.NewPage(); err != nil {
		e.Close()
		return fmt.Errorf("failed to create feed page: %w", err)
	}
	if e.resolver, err = bctx.NewPage(); err != nil {
		e.Close()
		return fmt.Errorf("failed to create resolver page: %w", err)
	}

	e.feed.SetDefaultTimeout(float64(e.opts.NavTimeout.Milliseconds()))
	e.feed.SetDefaultNavigationTimeout(float64(e.opts.NavTimeout.Milliseconds()))
	e.resolver.SetDefaultTimeout(float64(e.opts.ResolveTimeout.Milliseconds()))
	e.resolver.SetDefaultNavigationTimeout(float64(e.opts.ResolveTimeout.Milliseconds()))

	e.feed.OnConsole(func(msg playwright.ConsoleMessage) {
		logger.Debug("[console] %s", msg.Text())
	})
	e.feed.OnRequestFailed(func(req playwright.Request) {
		logger.Debug("[request failed] %s", req.URL())
	})

	return nil
}

// FeedPage implements Engine.
func (e *Playwright) FeedPage() Page { return &pwPage{page: e.feed} }

// ResolverPage implements Engine.
func (e *Playwright) ResolverPage() Page { return &pwPage{page: e.resolver} }

// RouteResolver implements Engine.
func (e *Playwright) RouteResolver(handler RouteHandler) error {
	return e.resolver.Route("**/*", func(route playwright.Route) {
		req := Request{
			URL:  route.Request().URL(),
			Type: ResourceType(route.Request().ResourceType()),
		}
		if handler(req) == Abort {
			_ = route.Abort()
			return
		}
		_ = route.Continue()
	})
}

// Close implements Engine. Teardown failures are swallowed: the session is
// being discarded either way.
func (e *Playwright) Close() {
	if e.context != nil {
		_ = e.context.Close()
	}
	if e.browser != nil {
		_ = e.browser.Close()
	}
	if e.pw != nil {
		_ = e.pw.Stop()
	}
	e.context = nil
	e.browser = nil
	e.pw = nil
	e.feed = nil
	e.resolver = nil
}

// pwPage adapts a playwright.Page to the Page interface.
type pwPage struct {
	page playwright.Page
}

func (p *pwPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *pwPage) URL() string { return p.page.URL() }

func (p *pwPage) Fill(selector, value string) error {
	return p.page.Locator(selector).First().Fill(value)
}

func (p *pwPage) Click(selector string) error {
	return p.page.Locator(selector).First().Click()
}

func (p *pwPage) WaitForSelector(selector string, timeout time.Duration) error {
	return p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (p *pwPage) WaitFor(d time.Duration) {
	p.page.WaitForTimeout(float64(d.Milliseconds()))
}

func (p *pwPage) Elements(selector string) []Element {
	return locatorElements(p.page.Locator(selector))
}

// pwElement adapts a playwright.Locator to the Element interface.
type pwElement struct {
	loc playwright.Locator
}

func (e *pwElement) Text(selector string) string {
	loc := e.loc
	if selector != "" {
		loc = loc.Locator(selector).First()
	}
	text, err := loc.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(float64(elementTimeout.Milliseconds())),
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (e *pwElement) Attr(selector, name string) string {
	loc := e.loc
	if selector != "" {
		loc = loc.Locator(selector).First()
	}
	value, err := loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(float64(elementTimeout.Milliseconds())),
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

func (e *pwElement) Elements(selector string) []Element {
	return locatorElements(e.loc.Locator(selector))
}

func locatorElements(loc playwright.Locator) []Element {
	count, err := loc.Count()
	if err != nil {
		return nil
	}
	elements := make([]Element, 0, count)
	for i := 0; i < count; i++ {
		elements = append(elements, &pwElement{loc: loc.Nth(i)})
	}
	return elements
}
