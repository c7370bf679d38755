package browser

import (
	"context"
	"time"
)

// DefaultUserAgent is presented by the headless session and by the
// plain HTTP clients alike, so all upstream traffic identifies as the
// same browser.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125 Safari/537.36"

// Page is the capability surface drivers need from a browser tab. It
// is always passed explicitly, never held as shared global state, so
// drivers can be exercised against a fake implementation.
type Page interface {
	Goto(ctx context.Context, url string) error
	Fill(ctx context.Context, selector, text string) error
	Click(ctx context.Context, selector string) error
	Press(ctx context.Context, selector, key string) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Count reports how many nodes currently match selector.
	Count(ctx context.Context, selector string) (int, error)
	// ExpectResponse registers interest in the next network response
	// whose URL satisfies the predicate. It must be called before the
	// interaction that triggers the request.
	ExpectResponse(predicate func(url string) bool, timeout time.Duration) ResponseWaiter
}

type Response struct {
	URL    string
	Status int64
	Body   []byte
}

// ResponseWaiter resolves with the first matching network response
// observed after registration.
type ResponseWaiter interface {
	// Await blocks until a matching response arrives or the timeout
	// elapses. ok reports false on timeout; a timeout is an ordinary
	// outcome, not an error.
	Await(ctx context.Context) (res Response, ok bool)
	// Cancel unsubscribes the waiter. A waiter left subscribed after
	// its call is over would steal responses meant for later waiters
	// with an overlapping predicate, so callers that may bail out
	// before Await must defer Cancel. Safe to call more than once and
	// after Await.
	Cancel()
}
