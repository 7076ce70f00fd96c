package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"commscivet/core/config"
	"commscivet/core/database"
	"commscivet/core/logger"
	"commscivet/core/storage"
	"commscivet/feature/observations"

	"github.com/spf13/cobra"
)

var statusExportPath string

// observationCmd classifies a single observation.
var observationCmd = &cobra.Command{
	Use:   "observation <id>",
	Short: "Show whether one observation is new, updated, unchanged or missing",
	Long: `Compare a single observation between the vetting table and the export
and print its status with the changes that would be recorded.

Examples:
  observation 148823091 --export ./inat.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runObservationStatus,
}

func init() {
	observationCmd.Flags().StringVar(&statusExportPath, "export", "", "Local export file (default: OBSERVATIONS_EXPORT_PATH or newest bucket export)")
	RootCmd.AddCommand(observationCmd)
}

func runObservationStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if statusExportPath != "" {
		cfg.Observations.ExportPath = statusExportPath
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	var client storage.Client
	if cfg.Observations.ExportPath == "" {
		if client, err = storage.NewClient(cfg.Storage); err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	svc := observations.NewService(cfg.Observations, db, client, cfg.Storage.Bucket, l, cfg.JobsNumber)
	result, err := svc.Status(ctx, args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
