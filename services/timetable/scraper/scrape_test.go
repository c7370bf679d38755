package scraper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mactimetable-backend/lib/testutil"
	"mactimetable-backend/services/timetable"
	"mactimetable-backend/services/timetable/db"

	"github.com/stretchr/testify/require"
)

func TestReadCourseList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course_codes.txt")
	err := os.WriteFile(path, []byte("COMPSCI 1JC3\n\n  MATH 1ZA3  \n\nPHYS 1D03\n"), 0644)
	require.NoError(t, err)

	queries, err := ReadCourseList(path)
	require.NoError(t, err)
	require.Equal(t, []string{"COMPSCI 1JC3", "MATH 1ZA3", "PHYS 1D03"}, queries)
}

func TestReadCourseListMissingFile(t *testing.T) {
	_, err := ReadCourseList(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestSkipLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipped.txt")

	skips := newSkipLog(path)
	skips.note("COMPSCI 1JC3", "no_response")
	skips.note("MATH 1ZA3", "no_course_node")
	skips.close()

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "COMPSCI 1JC3\tno_response\nMATH 1ZA3\tno_course_node\n", string(contents))

	// reopening truncates the previous run's entries
	skips = newSkipLog(path)
	skips.close()
	contents, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, contents)
}

// the skip log must say what actually went wrong: a failed page
// interaction is not a capture timeout
func TestProcessCourseSkipReasons(t *testing.T) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "scraper",
		DbSchema: db.Schema,
	})
	defer cleanup()
	svc := timetable.NewService(result.DB)

	path := filepath.Join(t.TempDir(), "skipped.txt")
	skips := newSkipLog(path)
	var stats RunStats

	drv := Driver{
		Page:    &fakePage{gotoErr: errors.New("net::ERR_CONNECTION_REFUSED")},
		BaseURL: "https://mytimetable.mcmaster.ca",
	}
	processCourse(context.Background(), svc, drv, "COMPSCI 1JC3", "3202530", skips, &stats)

	drv = Driver{
		Page:    &fakePage{waiters: []*fakeWaiter{{ok: false}, {ok: false}}},
		BaseURL: "https://mytimetable.mcmaster.ca",
	}
	processCourse(context.Background(), svc, drv, "MATH 1ZA3", "3202530", skips, &stats)

	skips.close()
	require.Equal(t, RunStats{Skipped: 2}, stats)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	require.Equal(t, []string{
		"COMPSCI 1JC3\tinteraction_error: net::ERR_CONNECTION_REFUSED",
		"MATH 1ZA3\tno_response",
	}, lines)
}

func TestSkipLogDisabled(t *testing.T) {
	skips := newSkipLog("")
	skips.note("COMPSCI 1JC3", "no_response")
	skips.close()
}
