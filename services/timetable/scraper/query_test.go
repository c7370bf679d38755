package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"mactimetable-backend/lib/browser"

	"github.com/stretchr/testify/require"
)

type fakeWaiter struct {
	res       browser.Response
	ok        bool
	cancelled bool
}

func (w *fakeWaiter) Await(ctx context.Context) (browser.Response, bool) {
	return w.res, w.ok
}

func (w *fakeWaiter) Cancel() {
	w.cancelled = true
}

// fakePage scripts the planner UI. Each ExpectResponse call consumes
// the next entry of waiters, so per-attempt outcomes can be staged.
type fakePage struct {
	gotoCalls   []string
	fillCalls   []string
	clickCalls  []string
	pressCalls  []string
	waiters     []*fakeWaiter
	issued      []*fakeWaiter
	selectedN   int
	gotoErr     error
	fillErr     error
	waitVisible error
}

func (p *fakePage) Goto(ctx context.Context, url string) error {
	p.gotoCalls = append(p.gotoCalls, url)
	return p.gotoErr
}

func (p *fakePage) Fill(ctx context.Context, selector, text string) error {
	p.fillCalls = append(p.fillCalls, text)
	return p.fillErr
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.clickCalls = append(p.clickCalls, selector)
	return nil
}

func (p *fakePage) Press(ctx context.Context, selector, key string) error {
	p.pressCalls = append(p.pressCalls, key)
	return nil
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return p.waitVisible
}

func (p *fakePage) Count(ctx context.Context, selector string) (int, error) {
	return p.selectedN, nil
}

func (p *fakePage) ExpectResponse(predicate func(url string) bool, timeout time.Duration) browser.ResponseWaiter {
	w := p.waiters[0]
	p.waiters = p.waiters[1:]
	p.issued = append(p.issued, w)
	return w
}

func TestFetchCourseXML(t *testing.T) {
	page := &fakePage{
		waiters: []*fakeWaiter{
			{res: browser.Response{Status: 200, Body: []byte("<addcourse/>")}, ok: true},
		},
	}
	drv := Driver{Page: page, BaseURL: "https://mytimetable.mcmaster.ca"}

	xmlText, err := drv.FetchCourseXML(context.Background(), "COMPSCI 1JC3")
	require.NoError(t, err)
	require.Equal(t, "<addcourse/>", xmlText)

	require.Equal(t, []string{"https://mytimetable.mcmaster.ca/criteria.jsp#/scratch"}, page.gotoCalls)
	require.Equal(t, []string{"COMPSCI 1JC3"}, page.fillCalls)
	// the suggestion was visible, so it was clicked instead of pressing
	// Enter
	require.Equal(t, []string{suggestionItem}, page.clickCalls)
	require.Empty(t, page.pressCalls)
}

// a capture timeout earns exactly one retry, then the course is given
// up on
func TestFetchCourseXMLRetriesOnce(t *testing.T) {
	page := &fakePage{
		waiters: []*fakeWaiter{{ok: false}, {ok: false}},
	}
	drv := Driver{Page: page, BaseURL: "https://mytimetable.mcmaster.ca"}

	_, err := drv.FetchCourseXML(context.Background(), "COMPSCI 1JC3")
	require.ErrorIs(t, err, ErrNoResponse)
	require.Len(t, page.gotoCalls, 2)
}

func TestFetchCourseXMLSecondAttemptSucceeds(t *testing.T) {
	page := &fakePage{
		waiters: []*fakeWaiter{
			{ok: false},
			{res: browser.Response{Status: 200, Body: []byte("<addcourse/>")}, ok: true},
		},
	}
	drv := Driver{Page: page, BaseURL: "https://mytimetable.mcmaster.ca"}

	xmlText, err := drv.FetchCourseXML(context.Background(), "MATH 1ZA3")
	require.NoError(t, err)
	require.Equal(t, "<addcourse/>", xmlText)
	require.Len(t, page.gotoCalls, 2)
}

// interaction failures are not retried, only capture timeouts are
func TestFetchCourseXMLInteractionErrorNotRetried(t *testing.T) {
	gotoErr := errors.New("net::ERR_CONNECTION_REFUSED")
	page := &fakePage{
		gotoErr: gotoErr,
		waiters: []*fakeWaiter{{ok: false}, {ok: false}},
	}
	drv := Driver{Page: page, BaseURL: "https://mytimetable.mcmaster.ca"}

	_, err := drv.FetchCourseXML(context.Background(), "MATH 1ZA3")
	require.ErrorIs(t, err, gotoErr)
	require.Len(t, page.gotoCalls, 1)
}

func TestFetchCourseXMLEnterFallback(t *testing.T) {
	page := &fakePage{
		waitVisible: errors.New("timed out waiting for selector"),
		waiters: []*fakeWaiter{
			{res: browser.Response{Status: 200, Body: []byte("<addcourse/>")}, ok: true},
		},
	}
	drv := Driver{Page: page, BaseURL: "https://mytimetable.mcmaster.ca"}

	xmlText, err := drv.FetchCourseXML(context.Background(), "PHYS 1D03")
	require.NoError(t, err)
	require.Equal(t, "<addcourse/>", xmlText)
	require.Equal(t, []string{"Enter"}, page.pressCalls)
}

func TestFetchCourseXMLClearsLeftoverSelections(t *testing.T) {
	page := &fakePage{
		selectedN: 2,
		waiters: []*fakeWaiter{
			{res: browser.Response{Status: 200, Body: []byte("<addcourse/>")}, ok: true},
		},
	}
	drv := Driver{Page: page, BaseURL: "https://mytimetable.mcmaster.ca"}

	_, err := drv.FetchCourseXML(context.Background(), "CHEM 1E03")
	require.NoError(t, err)
	require.Equal(t, []string{removeButton, removeButton, suggestionItem}, page.clickCalls)
}

// every attempt must unsubscribe its waiter on the way out, even when
// the interaction errors before Await; a leaked waiter would capture
// the next course's response
func TestFetchCourseXMLCancelsWaiters(t *testing.T) {
	fillErr := errors.New("node not found")
	page := &fakePage{
		fillErr: fillErr,
		waiters: []*fakeWaiter{{ok: false}},
	}
	drv := Driver{Page: page, BaseURL: "https://mytimetable.mcmaster.ca"}

	_, err := drv.FetchCourseXML(context.Background(), "COMPSCI 1JC3")
	require.ErrorIs(t, err, fillErr)
	require.Len(t, page.issued, 1)
	require.True(t, page.issued[0].cancelled)

	// timed-out attempts unsubscribe too
	page = &fakePage{
		waiters: []*fakeWaiter{{ok: false}, {ok: false}},
	}
	drv = Driver{Page: page, BaseURL: "https://mytimetable.mcmaster.ca"}

	_, err = drv.FetchCourseXML(context.Background(), "MATH 1ZA3")
	require.ErrorIs(t, err, ErrNoResponse)
	require.Len(t, page.issued, 2)
	for _, w := range page.issued {
		require.True(t, w.cancelled)
	}
}

func TestMatchClassData(t *testing.T) {
	require.True(t, matchClassData("https://mytimetable.mcmaster.ca/api/class-data?term=3202530&course_0_0=COMPSCI-1JC3&t=123&e=456"))
	require.False(t, matchClassData("https://mytimetable.mcmaster.ca/api/class-data?term=3202530"))
	require.False(t, matchClassData("https://mytimetable.mcmaster.ca/api/getEnrollmentInfo?course_0_0=X"))
}
