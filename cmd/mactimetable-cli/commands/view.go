package commands

import (
	"fmt"
	"os"

	"mactimetable-backend/lib/configutil"
	"mactimetable-backend/lib/serviceutil"
	"mactimetable-backend/lib/sqliteutil"
	"mactimetable-backend/services/timetable/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(viewCmd)
}

var dayNames = [8]string{"", "Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func minutesToClock(m int64) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Prints the persisted courses and their weekly schedule.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		cfg = cfg.withDefaults()

		out, err := sqliteutil.OpenDB(db.Schema, cfg.Database.File)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer out.Close()

		qry := db.New(out)

		courses, err := qry.ListCourses(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list courses", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Course", "Title"})
		for _, c := range courses {
			t.AppendRow(table.Row{
				fmt.Sprintf("%s %s", c.Subject, c.Number),
				c.Title.String,
			})
		}
		t.Render()

		schedule, err := qry.ListSchedule(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list schedule", err)
		}

		t = table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Course", "Component", "Section", "Delivery", "Day", "Start", "End"})
		for _, row := range schedule {
			day := ""
			if row.DayOfWeek >= 1 && row.DayOfWeek <= 7 {
				day = dayNames[row.DayOfWeek]
			}
			t.AppendRow(table.Row{
				fmt.Sprintf("%s %s", row.Subject, row.Number),
				row.Component,
				row.SectionCode,
				row.Delivery.String,
				day,
				minutesToClock(row.StartMinutes),
				minutesToClock(row.EndMinutes),
			})
		}
		t.Render()
	},
}
