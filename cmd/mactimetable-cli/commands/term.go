package commands

import (
	"log/slog"

	"mactimetable-backend/lib/configutil"
	"mactimetable-backend/lib/serviceutil"
	"mactimetable-backend/lib/sqliteutil"
	"mactimetable-backend/services/timetable/db"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(termCmd)
}

var termCmd = &cobra.Command{
	Use:   "term <external-id> <name>",
	Short: "Seeds a term row, which must exist before scraping into it.",
	Args:  cobra.ExactArgs(2),
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
		err = qry.CreateTerm(cmd.Context(), db.CreateTermParams{
			ExternalID: args[0],
			Name:       args[1],
		})
		if err != nil {
			serviceutil.Fatal("failed to seed term", err)
		}
		slog.Info("term seeded", "external_id", args[0], "name", args[1])
	},
}
