package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mactimetable-backend/lib/browser"
	"mactimetable-backend/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("mactimetable.services.timetable.scraper")

var ErrNoResponse = fmt.Errorf("no class-data response captured")

const (
	classDataPath  = "/api/class-data"
	courseParamKey = "course_0_0="

	// empty scratch planner, navigating here resets UI state
	plannerPath = "/criteria.jsp#/scratch"

	searchInput    = "input#code_number"
	suggestionItem = "#code_number_suggest li"
	removeButton   = ".course_box .remove"

	suggestionTimeout = 2 * time.Second
	defaultTimeout    = 3500 * time.Millisecond
)

// Driver runs one course query against the planner search UI through
// an explicitly provided page.
type Driver struct {
	Page    browser.Page
	BaseURL string
	// response capture window per attempt, defaults to 3.5s
	Timeout time.Duration
}

func (d Driver) timeout() time.Duration {
	if d.Timeout == 0 {
		return defaultTimeout
	}
	return d.Timeout
}

func matchClassData(url string) bool {
	return strings.Contains(url, classDataPath) && strings.Contains(url, courseParamKey)
}

// FetchCourseXML drives the search UI for one course query and
// captures the raw class-data payload the interaction triggers. A
// capture timeout is retried exactly once with a fresh navigation,
// after that the course is given up on and ErrNoResponse is returned.
func (d Driver) FetchCourseXML(ctx context.Context, query string) (string, error) {
	ctx, span := tracer.Start(ctx, "FetchCourseXML")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			slog.WarnContext(ctx, "class-data capture timed out, retrying once", "query", query)
		}
		xmlText, err := d.fetchOnce(ctx, query)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "planner interaction failed")
			return "", err
		}
		if xmlText != "" {
			return xmlText, nil
		}
	}

	span.SetStatus(codes.Error, "no response captured")
	return "", ErrNoResponse
}

// fetchOnce performs a single navigate/search/await cycle. An empty
// string with a nil error means the capture window elapsed.
func (d Driver) fetchOnce(ctx context.Context, query string) (string, error) {
	err := d.Page.Goto(ctx, d.BaseURL+plannerPath)
	if err != nil {
		return "", err
	}

	d.clearSelectedCourses(ctx)

	// register before interacting, the response may arrive while the
	// suggestion click is still settling. unsubscribe on every exit so
	// an errored attempt cannot steal the next attempt's capture
	waiter := d.Page.ExpectResponse(matchClassData, d.timeout())
	defer waiter.Cancel()

	err = d.Page.Fill(ctx, searchInput, query)
	if err != nil {
		return "", err
	}

	err = d.Page.WaitVisible(ctx, suggestionItem, suggestionTimeout)
	if err == nil {
		err = d.Page.Click(ctx, suggestionItem)
	}
	if err != nil {
		// the suggestion never showed up or the click did not
		// register, fall back to a commit keystroke
		err = d.Page.Press(ctx, searchInput, "Enter")
		if err != nil {
			return "", err
		}
	}

	res, ok := waiter.Await(ctx)
	if !ok {
		return "", nil
	}
	return string(res.Body), nil
}

// clearSelectedCourses removes leftovers from a previous query. Every
// removal is best effort, a failure is logged and ignored.
func (d Driver) clearSelectedCourses(ctx context.Context) {
	n, err := d.Page.Count(ctx, removeButton)
	if err != nil {
		slog.DebugContext(ctx, "failed to count selected courses", "err", err)
		return
	}
	for i := 0; i < n; i++ {
		err := d.Page.Click(ctx, removeButton)
		if err != nil {
			slog.WarnContext(ctx, "failed to remove selected course", "err", err)
		}
	}
}
