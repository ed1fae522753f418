// Command tmsctl applies the schema, loads seed files and exports timesheet
// weeks without going through the HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tms/tms-backend/pkg/config"
	"github.com/tms/tms-backend/pkg/database"
	"github.com/tms/tms-backend/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "tmsctl",
	Short:         "Administer the timesheet database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "tmsctl: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd(), seedCmd(), exportCmd())
}

// connect loads the service configuration and opens the database.
func connect() (*database.DB, *logger.Logger, error) {
	cfg, err := config.Load("timesheet-service")
	if err != nil {
		return nil, nil, err
	}

	log := logger.New("tmsctl", cfg.Server.Environment)
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	return db, log, nil
}
