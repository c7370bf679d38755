package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

type SessionOptions struct {
	Headless   bool
	UserAgent  string
	TimezoneID string
	// path to an opaque cookie blob produced by the login flow,
	// loaded verbatim into the browser session
	CookiesFile string
	// evaluated once per request, nil disables interception
	Policy RequestPolicy
}

// Session owns one headless browser with a single reusable tab.
type Session struct {
	page        *ChromePage
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

func NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	page := &ChromePage{
		ctx:     tabCtx,
		pending: map[network.RequestID]*pendingResponse{},
	}

	actions := []chromedp.Action{network.Enable()}
	if opts.Policy != nil {
		actions = append(actions, fetch.Enable())
	}
	if opts.TimezoneID != "" {
		actions = append(actions, emulation.SetTimezoneOverride(opts.TimezoneID))
	}
	if opts.CookiesFile != "" {
		cookieAction, err := setCookiesAction(opts.CookiesFile)
		if err != nil {
			cancelTab()
			cancelAlloc()
			return nil, err
		}
		actions = append(actions, cookieAction)
	}

	err := chromedp.Run(tabCtx, actions...)
	if err != nil {
		cancelTab()
		cancelAlloc()
		return nil, err
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventRequestPaused:
			go page.resolvePaused(e, opts.Policy)
		case *network.EventResponseReceived:
			page.noteResponse(e)
		case *network.EventLoadingFinished:
			go page.deliverBody(e.RequestID)
		}
	})

	return &Session{
		page:        page,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

func (s *Session) Page() Page {
	return s.page
}

func (s *Session) Close() {
	s.cancelTab()
	s.cancelAlloc()
}

type sessionCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

func setCookiesAction(path string) (chromedp.Action, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cookies []sessionCookie
	err = json.Unmarshal(blob, &cookies)
	if err != nil {
		return nil, fmt.Errorf("malformed cookie blob %s: %w", path, err)
	}

	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			err := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				Do(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	}), nil
}

type pendingResponse struct {
	url    string
	status int64
	waiter *cdpWaiter
}

// ChromePage implements Page on top of one chromedp tab.
type ChromePage struct {
	ctx context.Context

	mu      sync.Mutex
	waiters []*cdpWaiter
	pending map[network.RequestID]*pendingResponse
}

func (p *ChromePage) Goto(ctx context.Context, u string) error {
	return p.run(ctx, chromedp.Navigate(u))
}

func (p *ChromePage) Fill(ctx context.Context, selector, text string) error {
	return p.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

func (p *ChromePage) Click(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

var keyNames = map[string]string{
	"Enter":  kb.Enter,
	"Escape": kb.Escape,
	"Tab":    kb.Tab,
}

func (p *ChromePage) Press(ctx context.Context, selector, key string) error {
	if mapped, ok := keyNames[key]; ok {
		key = mapped
	}
	return p.run(ctx, chromedp.SendKeys(selector, key, chromedp.ByQuery))
}

func (p *ChromePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (p *ChromePage) Count(ctx context.Context, selector string) (int, error) {
	var n int
	err := p.run(ctx, chromedp.Evaluate(
		fmt.Sprintf("document.querySelectorAll(%q).length", selector),
		&n,
	))
	return n, err
}

// run executes actions on the tab context while honoring the caller's
// deadline, if one is set.
func (p *ChromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	tabCtx := p.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		tabCtx, cancel = context.WithDeadline(tabCtx, deadline)
		defer cancel()
	}
	return chromedp.Run(tabCtx, actions...)
}

func (p *ChromePage) ExpectResponse(predicate func(url string) bool, timeout time.Duration) ResponseWaiter {
	w := &cdpWaiter{
		pred:    predicate,
		timeout: timeout,
		ch:      make(chan Response, 1),
		page:    p,
	}
	p.mu.Lock()
	p.waiters = append(p.waiters, w)
	p.mu.Unlock()
	return w
}

func (p *ChromePage) dropWaiter(w *cdpWaiter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, cur := range p.waiters {
		if cur == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return
		}
	}
}

func (p *ChromePage) noteResponse(e *network.EventResponseReceived) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range p.waiters {
		if w.pred(e.Response.URL) {
			p.pending[e.RequestID] = &pendingResponse{
				url:    e.Response.URL,
				status: e.Response.Status,
				waiter: w,
			}
			return
		}
	}
}

// deliverBody runs once the browser reports the body as fully loaded,
// bodies requested earlier come back truncated.
func (p *ChromePage) deliverBody(id network.RequestID) {
	p.mu.Lock()
	pend, ok := p.pending[id]
	if ok {
		delete(p.pending, id)
	}
	p.mu.Unlock()
	if !ok {
		return
	}

	c := chromedp.FromContext(p.ctx)
	ectx := cdp.WithExecutor(p.ctx, c.Target)
	body, err := network.GetResponseBody(id).Do(ectx)
	if err != nil {
		slog.Warn("failed to read intercepted response body", "url", pend.url, "err", err)
		return
	}

	p.dropWaiter(pend.waiter)
	select {
	case pend.waiter.ch <- Response{URL: pend.url, Status: pend.status, Body: body}:
	default:
	}
}

func (p *ChromePage) resolvePaused(e *fetch.EventRequestPaused, policy RequestPolicy) {
	c := chromedp.FromContext(p.ctx)
	ectx := cdp.WithExecutor(p.ctx, c.Target)

	path := e.Request.URL
	if parsed, err := url.Parse(e.Request.URL); err == nil {
		path = parsed.Path
	}

	if policy == nil || policy(e.Request.Method, path) {
		err := fetch.ContinueRequest(e.RequestID).Do(ectx)
		if err != nil {
			slog.Debug("failed to continue request", "url", e.Request.URL, "err", err)
		}
		return
	}

	slog.WarnContext(p.ctx, "blocked request outside allow-list",
		"method", e.Request.Method,
		"url", e.Request.URL,
	)
	err := fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(ectx)
	if err != nil {
		slog.Debug("failed to block request", "url", e.Request.URL, "err", err)
	}
}

type cdpWaiter struct {
	pred    func(url string) bool
	timeout time.Duration
	ch      chan Response
	page    *ChromePage
}

func (w *cdpWaiter) Cancel() {
	w.page.dropWaiter(w)
}

func (w *cdpWaiter) Await(ctx context.Context) (Response, bool) {
	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case res := <-w.ch:
		return res, true
	case <-timer.C:
	case <-ctx.Done():
	}
	w.page.dropWaiter(w)
	return Response{}, false
}
