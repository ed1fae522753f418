package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/events"
	"github.com/tms/tms-backend/internal/timesheet/report"
	"github.com/tms/tms-backend/internal/timesheet/repository"
	"github.com/tms/tms-backend/internal/timesheet/seed"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/pkg/messaging"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, log, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("schema is up to date")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load employees, timesheets and daily logs from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := seed.LoadFile(file)
			if err != nil {
				return err
			}

			db, log, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}

			pub := events.NewPublisher(messaging.NopPublisher{}, log)
			employeeRepo := repository.NewEmployeeRepository(db)
			employees := service.NewEmployeeService(db, employeeRepo, pub, log)
			logs := service.NewDailyLogService(
				db,
				employeeRepo,
				repository.NewTimesheetRepository(db),
				repository.NewDailyLogRepository(db),
				repository.NewChangeRepository(db),
				pub,
				log,
			)

			sum, err := seed.NewSeeder(db, employees, logs, log).Apply(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "employees created: %d, managers set: %d, timesheets created: %d, daily logs saved: %d\n",
				sum.EmployeesCreated, sum.ManagersSet, sum.Timesheets, sum.DailyLogs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file (YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func exportCmd() *cobra.Command {
	var email, week, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write one employee's week to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			weekStarting, err := domain.ParseDate("week", week)
			if err != nil {
				return err
			}

			db, log, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			dashboard := service.NewDashboardService(
				db,
				repository.NewEmployeeRepository(db),
				repository.NewTimesheetRepository(db),
				repository.NewDailyLogRepository(db),
				log,
			)
			view, err := dashboard.Assemble(cmd.Context(), email, &weekStarting)
			if err != nil {
				return err
			}

			if out == "" {
				out = report.Filename(view.Employee, weekStarting)
			}
			fh, err := os.Create(filepath.Clean(out))
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := report.WriteWeek(fh, view, weekStarting); err != nil {
				fh.Close()
				return err
			}
			if err := fh.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d daily logs to %s\n", len(view.DailyLogs), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "employee email")
	cmd.Flags().StringVar(&week, "week", "", "week starting date (YYYY-MM-DD or MM/DD/YYYY)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (defaults to the suggested file name)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("week")
	return cmd
}
