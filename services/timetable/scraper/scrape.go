package scraper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"mactimetable-backend/services/timetable"
	"mactimetable-backend/services/timetable/classdata"

	"github.com/mazen160/go-random"
)

type RunOptions struct {
	TermExternalID string
	// skipped courses are appended here as "QUERY<tab>reason",
	// truncated at run start. empty disables the file.
	SkipLogPath string
	// politeness pause bounds between courses, milliseconds
	MinPauseMs int
	MaxPauseMs int
}

type RunStats struct {
	Saved   int
	Skipped int
	Failed  int
}

// Run processes course queries strictly in input order against one
// page. Every failure is recovered at course granularity, nothing
// short of context cancellation stops the run.
func Run(ctx context.Context, database *sql.DB, drv Driver, queries []string, opts RunOptions) RunStats {
	svc := timetable.NewService(database)
	skips := newSkipLog(opts.SkipLogPath)
	defer skips.close()

	var stats RunStats
	for i, query := range queries {
		if ctx.Err() != nil {
			break
		}
		processCourse(ctx, svc, drv, query, opts.TermExternalID, skips, &stats)

		if i < len(queries)-1 {
			politePause(ctx, opts.MinPauseMs, opts.MaxPauseMs)
		}
	}

	slog.InfoContext(ctx, "scrape finished",
		"saved", stats.Saved,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return stats
}

func processCourse(
	ctx context.Context,
	svc timetable.Service,
	drv Driver,
	query string,
	termExternalID string,
	skips *skipLog,
	stats *RunStats,
) {
	xmlText, err := drv.FetchCourseXML(ctx, query)
	if err != nil {
		stats.Skipped++
		// a capture timeout and a failed page interaction are different
		// problems, keep them apart in the skip log
		reason := "no_response"
		if !errors.Is(err, ErrNoResponse) {
			reason = fmt.Sprintf("interaction_error: %s", err)
		}
		skips.note(query, reason)
		slog.WarnContext(ctx, "skipping course",
			"query", query, "reason", reason, "err", err)
		return
	}

	data, err := classdata.Parse(xmlText)
	if err != nil {
		stats.Failed++
		skips.note(query, fmt.Sprintf("parse_error: %s", err))
		slog.WarnContext(ctx, "skipping course, unparseable payload",
			"query", query, "err", err)
		return
	}
	if data == nil {
		stats.Skipped++
		skips.note(query, "no_course_node")
		slog.WarnContext(ctx, "skipping course, payload carries no course",
			"query", query)
		return
	}

	res, err := svc.IngestCourse(ctx, termExternalID, data)
	if err != nil {
		stats.Failed++
		skips.note(query, fmt.Sprintf("store_error: %s", err))
		slog.ErrorContext(ctx, "failed to ingest course",
			"query", query, "err", err)
		return
	}

	stats.Saved++
	slog.InfoContext(ctx, "course saved",
		"subject", data.Course.Subject,
		"number", data.Course.Number,
		"sections", res.Sections,
		"meetings", res.Meetings,
	)
}

// politePause sleeps a randomized interval so repeated queries don't
// hammer the upstream. Not a correctness mechanism.
func politePause(ctx context.Context, minMs, maxMs int) {
	if maxMs <= 0 {
		return
	}
	ms := minMs
	if maxMs > minMs {
		n, err := random.IntRange(minMs, maxMs)
		if err == nil {
			ms = n
		}
	}
	if ms <= 0 {
		return
	}

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// ReadCourseList loads the ordered course-query list, one query per
// line, blank lines ignored.
func ReadCourseList(path string) ([]string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var queries []string
	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		queries = append(queries, line)
	}
	return queries, nil
}

type skipLog struct {
	f *os.File
}

func newSkipLog(path string) *skipLog {
	if path == "" {
		return &skipLog{}
	}
	f, err := os.Create(path)
	if err != nil {
		slog.Warn("failed to open skip log", "path", path, "err", err)
		return &skipLog{}
	}
	return &skipLog{f: f}
}

func (l *skipLog) note(query, reason string) {
	if l.f == nil {
		return
	}
	_, err := fmt.Fprintf(l.f, "%s\t%s\n", query, reason)
	if err != nil {
		slog.Warn("failed to append to skip log", "err", err)
	}
}

func (l *skipLog) close() {
	if l.f != nil {
		l.f.Close()
	}
}
