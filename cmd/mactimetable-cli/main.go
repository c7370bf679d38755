package main

import (
	"context"

	"mactimetable-backend/cmd/mactimetable-cli/commands"
	"mactimetable-backend/lib/serviceutil"
	"mactimetable-backend/lib/telemetry"
)

func main() {
	ctx := context.Background()

	tel, err := telemetry.SetupFromEnv(ctx, "mactimetable-cli")
	if err != nil {
		serviceutil.Fatal("failed to set up telemetry", err)
	}
	defer tel.Shutdown(ctx)

	telemetry.InitSlog(true)
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
