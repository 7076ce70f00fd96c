package observations

import (
	"context"
	"fmt"
	"path"
	"time"

	"commscivet/core/changelog"
	"commscivet/core/database"
	"commscivet/core/reconcile"
	"commscivet/core/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dataset is the name observation runs are recorded under.
const Dataset = "observations"

// Service reconciles community science exports against the feature table.
type Service struct {
	cfg     Config
	db      *gorm.DB
	client  storage.Client
	bucket  string
	changes *changelog.Store
	logger  *zap.Logger
	jobs    int
	now     func() time.Time
}

// NewService creates a new observations service. db and client may be nil;
// operations needing them fail with an error.
func NewService(cfg Config, db *gorm.DB, client storage.Client, bucket string, logger *zap.Logger, jobs int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		cfg:    cfg,
		db:     db,
		client: client,
		bucket: bucket,
		logger: logger,
		jobs:   jobs,
		now:    time.Now,
	}
	if db != nil {
		s.changes = changelog.NewStore(db, cfg.BatchSize)
	}
	return s
}

// RunOptions controls a reconciliation run.
type RunOptions struct {
	Export Export
	// Purge deletes rows missing from the export.
	Purge  bool
	DryRun bool
	// Confirmed must be set for any row to be written.
	Confirmed bool
	// Archive uploads the run report to object storage.
	Archive  bool
	Progress func(done int)
}

// RunResult describes a finished run.
type RunResult struct {
	RunID     string          `json:"run_id"`
	Source    string          `json:"source"`
	Plan      *reconcile.Plan `json:"plan"`
	Executed  int             `json:"executed"`
	Recorded  bool            `json:"recorded"`
	ReportKey string          `json:"report_key,omitempty"`
}

func (s *Service) spec(exp Export, observedAt time.Time) (*reconcile.Spec, *Store) {
	store := NewStore(s.db, s.cfg, observedAt)
	return &reconcile.Spec{
		Name:            Dataset,
		Source:          exp.Describe(),
		IdentifierField: s.cfg.IdentifierField,
		TrackedFields:   s.cfg.TrackedFields,
		Old:             store,
		New:             s.exportSource(exp, store),
		CacheTTL:        s.cfg.CacheTTL(),
		Jobs:            s.jobs,
	}, store
}

// Plan reconciles the export against the table without writing anything.
func (s *Service) Plan(ctx context.Context, exp Export, purge bool) (*reconcile.Plan, error) {
	observedAt := s.now()
	spec, _ := s.spec(exp, observedAt)
	return reconcile.ReconcileWithPlan(ctx, spec, observedAt, reconcile.Options{DoPurge: purge})
}

// Run plans and applies in one step. See Apply.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	plan, err := s.Plan(ctx, opts.Export, opts.Purge)
	if err != nil {
		return nil, fmt.Errorf("failed to plan observations: %w", err)
	}
	return s.Apply(ctx, plan, opts)
}

// Apply executes a plan when it is confirmed and not a dry run, then
// records its changes in the change log. Rows are stamped with the plan's
// observation date. A dry or unconfirmed run only reports, and may still
// archive the report.
func (s *Service) Apply(ctx context.Context, plan *reconcile.Plan, opts RunOptions) (*RunResult, error) {
	runID := uuid.NewString()
	result := &RunResult{RunID: runID, Source: opts.Export.Describe(), Plan: plan}
	l := s.logger.With(zap.String("run_id", runID), zap.String("source", result.Source))

	l.Info("Observations planned",
		zap.Int("new", plan.Summary.New),
		zap.Int("updated", plan.Summary.Updated),
		zap.Int("unchanged", plan.Summary.Unchanged),
		zap.Int("missing", plan.Summary.Missing),
		zap.Int("actions", len(plan.Actions)),
	)

	ropts := reconcile.Options{
		DryRun:    opts.DryRun,
		DoPurge:   opts.Purge,
		Confirmed: opts.Confirmed,
		Progress:  opts.Progress,
	}
	store := NewStore(s.db, s.cfg, plan.ObservedAt)

	executed, err := reconcile.ApplyPlan(ctx, store, plan, ropts)
	result.Executed = executed
	if executed > 0 {
		// the table changed under every export's cached indices
		reconcile.InvalidateDataset(Dataset)
	}
	if err != nil {
		return result, fmt.Errorf("failed to apply observations plan: %w", err)
	}

	if opts.Confirmed && !opts.DryRun {
		if err := s.record(ctx, runID, plan.Changes); err != nil {
			return result, err
		}
		result.Recorded = true
		l.Info("Observations applied", zap.Int("executed", executed), zap.Int("changes", len(plan.Changes)))
	}

	if opts.Archive {
		key, err := s.archive(ctx, changelog.Report{
			RunID:      runID,
			Dataset:    Dataset,
			Source:     result.Source,
			ObservedAt: plan.ObservedAt,
			Summary:    &plan.Summary,
			Executed:   executed,
			Changes:    plan.Changes,
		})
		if err != nil {
			return result, err
		}
		result.ReportKey = key
	}

	return result, nil
}

func (s *Service) record(ctx context.Context, runID string, changes []reconcile.ChangeRecord) error {
	if s.changes == nil {
		return fmt.Errorf("change log: database not connected")
	}
	if err := s.changes.Migrate(ctx); err != nil {
		return err
	}
	return s.changes.Sink(runID, Dataset).Append(ctx, changes)
}

func (s *Service) archive(ctx context.Context, report changelog.Report) (string, error) {
	key, err := changelog.Archive(ctx, s.client, s.bucket, s.cfg.ReportPrefix, report)
	if err != nil {
		return "", err
	}

	removed, err := storage.PruneObjects(ctx, s.client, s.bucket, path.Join(s.cfg.ReportPrefix, Dataset)+"/", s.cfg.ReportRetention)
	if err != nil {
		s.logger.Warn("Failed to prune old reports", zap.Error(err))
	} else if removed > 0 {
		s.logger.Info("Pruned old reports", zap.Int("removed", removed))
	}
	return key, nil
}

// Status classifies one observation against the default export.
func (s *Service) Status(ctx context.Context, identifier string) (*reconcile.Result, error) {
	observedAt := s.now()
	spec, _ := s.spec(Export{Path: s.cfg.ExportPath}, observedAt)
	return reconcile.ReconcileOne(ctx, spec, identifier, observedAt)
}

// CheckSchema returns the required columns the feature table lacks.
func (s *Service) CheckSchema(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("table %s: database not connected", s.cfg.Table)
	}
	return database.MissingColumns(s.db.WithContext(ctx), s.cfg.Table, s.cfg.RequiredColumns())
}

// Changes returns the recorded changes of a run.
func (s *Service) Changes(ctx context.Context, runID string) ([]changelog.Entry, error) {
	if s.changes == nil {
		return nil, fmt.Errorf("change log: database not connected")
	}
	return s.changes.List(ctx, runID)
}
