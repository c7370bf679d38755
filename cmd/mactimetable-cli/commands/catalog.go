package commands

import (
	"log/slog"

	"mactimetable-backend/lib/serviceutil"
	"mactimetable-backend/services/timetable/catalog"

	"github.com/spf13/cobra"
)

var catalogOut *string
var catalogURL *string

func init() {
	catalogOut = catalogCmd.Flags().String("out", "course_codes.txt", "The file to write the extracted course codes to.")
	catalogURL = catalogCmd.Flags().String("url", "", "Overrides the academic-calendar listing URL.")
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog [--out <path/to/course_codes.txt>]",
	Short: "Scrapes the academic calendar and writes the course-code list that drives scraping.",
	Run: func(cmd *cobra.Command, args []string) {
		client := catalog.NewClient(*catalogURL)

		names, err := client.FetchCourseNames(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch course names", err)
		}

		codes := catalog.ExtractCodes(names)
		err = catalog.WriteCourseList(*catalogOut, codes)
		if err != nil {
			serviceutil.Fatal("failed to write course list", err)
		}

		slog.Info("course list written",
			"names", len(names),
			"codes", len(codes),
			"file", *catalogOut,
		)
	},
}
