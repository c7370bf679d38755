package commands

import (
	"log/slog"
	"time"

	"mactimetable-backend/lib/browser"
	"mactimetable-backend/lib/configutil"
	"mactimetable-backend/lib/serviceutil"
	"mactimetable-backend/lib/sqliteutil"
	"mactimetable-backend/lib/timezone"
	"mactimetable-backend/services/timetable/db"
	"mactimetable-backend/services/timetable/scraper"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Extracts schedule data for every course in the course list and writes it to the database.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		cfg = cfg.withDefaults()

		queries, err := scraper.ReadCourseList(cfg.CoursesFile)
		if err != nil {
			serviceutil.Fatal("failed to read course list", err)
		}
		slog.Info("loaded course list", "courses", len(queries), "file", cfg.CoursesFile)

		out, err := sqliteutil.OpenDB(db.Schema, cfg.Database.File)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer out.Close()

		ctx := serviceutil.SignalContext()

		sess, err := browser.NewSession(ctx, browser.SessionOptions{
			Headless:    cfg.Browser.Headless,
			UserAgent:   browser.DefaultUserAgent,
			TimezoneID:  timezone.Location.String(),
			CookiesFile: cfg.Browser.CookiesFile,
			Policy:      browser.AllowReadOnly(),
		})
		if err != nil {
			serviceutil.Fatal("failed to start browser session", err)
		}
		defer sess.Close()

		drv := scraper.Driver{
			Page:    sess.Page(),
			BaseURL: cfg.BaseURL,
		}

		t1 := time.Now()
		stats := scraper.Run(ctx, out, drv, queries, scraper.RunOptions{
			TermExternalID: cfg.Term.ExternalID,
			SkipLogPath:    cfg.SkipLog,
			MinPauseMs:     cfg.Pause.MinMs,
			MaxPauseMs:     cfg.Pause.MaxMs,
		})
		t2 := time.Now()

		slog.Info("scraping time",
			"seconds", t2.Sub(t1).Seconds(),
			"saved", stats.Saved,
			"skipped", stats.Skipped,
			"failed", stats.Failed,
		)
	},
}
