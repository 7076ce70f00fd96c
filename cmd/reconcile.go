package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"commscivet/core/config"
	"commscivet/core/database"
	"commscivet/core/logger"
	"commscivet/core/reconcile"
	"commscivet/core/storage"
	"commscivet/feature/observations"
	"commscivet/feature/tracking"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for reconcile observations
	exportPath    string
	exportObject  string
	purgeMissing  bool
	dryRun        bool
	yesConfirm    bool
	archiveReport bool
	showProgress  bool

	// Flags for reconcile tracking
	oldFile    string
	newFile    string
	exportDate string
	xlsxOut    string
	skipRecord bool
)

// reconcileCmd is the parent command for all reconcile operations.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile snapshots and record their changes",
	Long: `Reconcile a stored snapshot with a current one, report additions,
deletions and field updates, and record them in the change log.`,
}

// observationsReconcileCmd reconciles an export against the feature table.
var observationsReconcileCmd = &cobra.Command{
	Use:   "observations",
	Short: "Reconcile an iNaturalist export with the vetting table",
	Long: `Reconcile an iNaturalist export with the community science vetting table.

New observations are inserted, updated ones get their changed fields, and
with --purge observations missing from the export are deleted. Nothing is
written until the plan is confirmed.

Examples:
  # Report only, using the newest export in the bucket
  reconcile observations --dry-run

  # Apply a local export (with interactive confirmation)
  reconcile observations --export ./inat.csv

  # Apply a bucket object, delete missing rows, archive the report
  reconcile observations --object exports/observations/2024-05.csv --purge --archive --yes`,
	RunE: runObservationsReconcile,
}

// trackingReconcileCmd diffs two species tracking snapshots.
var trackingReconcileCmd = &cobra.Command{
	Use:   "tracking",
	Short: "Diff two species tracking snapshots",
	Long: `Diff the old and new species tracking snapshots keyed by ELSUBID.

Snapshots come from the configured tables unless files are given. Changes are
stamped with the export date and appended to the change log.

Examples:
  # Diff the configured tables
  reconcile tracking --export-date 2024-03-01

  # Diff two exports and write a workbook for reviewers
  reconcile tracking --old-file et_2023.xlsx --new-file et_2024.xlsx --xlsx changes.xlsx`,
	RunE: runTrackingReconcile,
}

func init() {
	reconcileCmd.AddCommand(observationsReconcileCmd)
	reconcileCmd.AddCommand(trackingReconcileCmd)

	f := observationsReconcileCmd.Flags()
	f.StringVar(&exportPath, "export", "", "Local export file (.csv or .xlsx)")
	f.StringVar(&exportObject, "object", "", "Export object key in the bucket (default: newest under the export prefix)")
	f.BoolVar(&purgeMissing, "purge", false, "Delete observations missing from the export")
	f.BoolVar(&dryRun, "dry-run", false, "Force dry-run (no mutations even with --yes)")
	f.BoolVar(&yesConfirm, "yes", false, "Auto-confirm mutations (non-interactive)")
	f.BoolVar(&archiveReport, "archive", false, "Archive the run report to object storage")
	f.BoolVar(&showProgress, "progress", true, "Show a progress bar while applying")

	t := trackingReconcileCmd.Flags()
	t.StringVar(&oldFile, "old-file", "", "Old snapshot file (default: configured old table)")
	t.StringVar(&newFile, "new-file", "", "New snapshot file (default: configured new table)")
	t.StringVar(&exportDate, "export-date", "", "Export date stamped on changes, YYYY-MM-DD (default: today)")
	t.StringVar(&xlsxOut, "xlsx", "", "Write the changes to this xlsx file")
	t.BoolVar(&skipRecord, "no-record", false, "Do not append the changes to the change log")

	RootCmd.AddCommand(reconcileCmd)
}

func runObservationsReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
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
	if exportPath == "" || archiveReport {
		if client, err = storage.NewClient(cfg.Storage); err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	svc := observations.NewService(cfg.Observations, db, client, cfg.Storage.Bucket, l, cfg.JobsNumber)
	exp := observations.Export{Path: exportPath, Object: exportObject}

	missing, err := svc.CheckSchema(ctx)
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing columns: %s", cfg.Observations.Table, strings.Join(missing, ", "))
	}

	// Step 1: plan and report
	l.Info("Planning reconciliation...", zap.String("source", exp.Describe()))
	plan, err := svc.Plan(ctx, exp, purgeMissing)
	if err != nil {
		return fmt.Errorf("failed to plan reconciliation: %w", err)
	}
	printPlanReport(l, plan)

	if dryRun {
		l.Info("Dry-run mode: No changes were made.")
		if archiveReport {
			result, err := svc.Apply(ctx, plan, observations.RunOptions{Export: exp, Purge: purgeMissing, DryRun: true, Archive: true})
			if err != nil {
				return err
			}
			l.Info("Report archived", zap.String("key", result.ReportKey))
		}
		return nil
	}

	if len(plan.Actions) == 0 && len(plan.Changes) == 0 {
		l.Info("Nothing to do: the table matches the export.")
		return nil
	}

	// Step 2: confirm
	if !confirmAction(os.Stdin, os.Stdout, yesConfirm, len(plan.Actions)) {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	// Step 3: apply and record
	opts := observations.RunOptions{
		Export:    exp,
		Purge:     purgeMissing,
		Confirmed: true,
		Archive:   archiveReport,
	}
	var bar *pb.ProgressBar
	if showProgress && len(plan.Actions) > 0 {
		bar = newProgressBar(len(plan.Actions), "applying ")
		opts.Progress = func(done int) { bar.SetCurrent(int64(done)) }
	}

	l.Info("Applying actions...")
	result, err := svc.Apply(ctx, plan, opts)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("failed to apply plan: %w", err)
	}

	l.Info("Reconciliation finished",
		zap.String("run_id", result.RunID),
		zap.String("executed", humanize.Comma(int64(result.Executed))),
		zap.String("changes_recorded", humanize.Comma(int64(len(result.Plan.Changes)))),
		zap.String("report", result.ReportKey),
	)
	return nil
}

func runTrackingReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	date, err := parseExportDate(exportDate, time.Now())
	if err != nil {
		return err
	}

	// Files alone need no database unless the changes are recorded.
	needDB := !skipRecord || oldFile == "" || newFile == ""
	svc, err := newTrackingService(cfg, l, needDB)
	if err != nil {
		return err
	}

	result, err := svc.Diff(ctx, tracking.DiffOptions{
		Old:        tracking.Snapshot{Path: oldFile},
		New:        tracking.Snapshot{Path: newFile},
		ExportDate: date,
		Record:     !skipRecord,
	})
	if err != nil {
		return fmt.Errorf("failed to diff tracking snapshots: %w", err)
	}

	l.Info("Tracking changes",
		zap.String("run_id", result.RunID),
		zap.String("additions", humanize.Comma(int64(result.Summary.Additions))),
		zap.String("deletions", humanize.Comma(int64(result.Summary.Deletions))),
		zap.String("field_updates", humanize.Comma(int64(result.Summary.FieldUpdates))),
		zap.Bool("recorded", result.Recorded),
	)

	if xlsxOut != "" {
		f, err := os.Create(xlsxOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", xlsxOut, err)
		}
		defer f.Close()
		if err := tracking.WriteReport(f, result.Changes); err != nil {
			return err
		}
		l.Info("Report written", zap.String("path", xlsxOut), zap.String("size", humanize.Bytes(uint64(fileSize(f)))))
	}
	return nil
}

func newTrackingService(cfg *config.Config, l *zap.Logger, needDB bool) (*tracking.Service, error) {
	if !needDB {
		return tracking.NewService(cfg.Tracking, nil, nil, cfg.Storage.Bucket, l, cfg.JobsNumber), nil
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return tracking.NewService(cfg.Tracking, db, nil, cfg.Storage.Bucket, l, cfg.JobsNumber), nil
}

// parseExportDate reads a YYYY-MM-DD date; empty means today.
func parseExportDate(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --export-date %q, want YYYY-MM-DD", raw)
	}
	return d, nil
}

func fileSize(f *os.File) int64 {
	info, err := f.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

// printPlanReport prints a formatted reconciliation report using logger.
func printPlanReport(l *zap.Logger, plan *reconcile.Plan) {
	s := plan.Summary

	l.Info("Reconciliation report",
		zap.String("total_items", humanize.Comma(int64(s.TotalItems))),
		zap.String("new", humanize.Comma(int64(s.New))),
		zap.String("updated", humanize.Comma(int64(s.Updated))),
		zap.String("unchanged", humanize.Comma(int64(s.Unchanged))),
		zap.String("missing", humanize.Comma(int64(s.Missing))),
		zap.String("field_updates", humanize.Comma(int64(s.FieldUpdates))),
	)

	if len(plan.Actions) == 0 {
		return
	}

	l.Info("Planned actions",
		zap.Int("insert_actions", s.InsertActions),
		zap.Int("update_actions", s.UpdateActions),
		zap.Int("delete_actions", s.DeleteActions),
		zap.Int("total_actions", len(plan.Actions)),
	)

	// Show sample of actions (max 5 for logger)
	maxShow := min(5, len(plan.Actions))
	for _, action := range plan.Actions[:maxShow] {
		l.Info("Sample action",
			zap.String("type", string(action.Type)),
			zap.String("key", action.Key),
			zap.String("reason", action.Reason),
		)
	}
	if len(plan.Actions) > maxShow {
		l.Info("Additional actions not shown", zap.Int("count", len(plan.Actions)-maxShow))
	}
}

// confirmAction prompts the user for confirmation or uses --yes flag.
func confirmAction(in io.Reader, out io.Writer, yes bool, actions int) bool {
	if yes {
		fmt.Fprintln(out, "\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Fprintf(out, "\n⚠️  %d actions will be applied. Type 'yes' to confirm: ", actions)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}

func newProgressBar(total int, prefix string) *pb.ProgressBar {
	bar := pb.Full.Start(total)
	bar.Set("prefix", prefix)
	bar.Set(pb.CleanOnFinish, true)
	return bar
}
