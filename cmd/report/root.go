package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/devicewatch/backend/internal/config"
	"github.com/devicewatch/backend/internal/db"
	"github.com/devicewatch/backend/internal/logger"
	"github.com/devicewatch/backend/internal/services"
)

type reportOptions struct {
	window   time.Duration
	format   string
	deviceID uint
}

type reportBuilder interface {
	Build(ctx context.Context, query services.ErrorQuery) (*services.Report, error)
}

func newRootCmd() *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print clustered device service errors",
		Long: `Report groups the system errors devices reported in the last window by service
and collapses near-identical logs into clusters.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Initialize(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
			if !cmd.Flags().Changed("window") {
				opts.window = cfg.ReportWindow
			}

			conn, err := db.Connect(cfg.Database.DSN())
			if err != nil {
				return err
			}
			builder := services.NewErrorReportService(services.NewEventService(conn), cfg.Engine, nil)
			return runReport(cmd.Context(), cmd.OutOrStdout(), builder, opts, time.Now())
		},
	}

	cmd.Flags().DurationVar(&opts.window, "window", 24*time.Hour, "How far back to look for errors (defaults to REPORT_WINDOW)")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format: json or yaml")
	cmd.Flags().UintVar(&opts.deviceID, "device", 0, "Only report errors from this device id")
	return cmd
}

// runReport builds the report for the window ending at now and writes it to out.
func runReport(ctx context.Context, out io.Writer, builder reportBuilder, opts *reportOptions, now time.Time) error {
	if opts.window <= 0 {
		return fmt.Errorf("window must be positive, got %s", opts.window)
	}
	encode, err := encoderFor(opts.format)
	if err != nil {
		return err
	}

	end := now.UTC()
	start := end.Add(-opts.window)
	query := services.ErrorQuery{Admin: true, StartTime: &start, EndTime: &end}
	if opts.deviceID != 0 {
		query.DeviceID = &opts.deviceID
	}

	report, err := builder.Build(ctx, query)
	if err != nil {
		return err
	}
	if report.Empty() {
		_, err := fmt.Fprintf(out, "No service errors between %s and %s\n", start.Format(time.RFC3339), end.Format(time.RFC3339))
		return err
	}
	return encode(out, report)
}
