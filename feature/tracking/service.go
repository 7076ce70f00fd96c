package tracking

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"commscivet/core/changelog"
	"commscivet/core/database"
	"commscivet/core/reconcile"
	"commscivet/core/sheet"
	"commscivet/core/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dataset is the name tracking runs are recorded under.
const Dataset = "tracking"

// Snapshot selects one side of the diff. The first set field wins: Data,
// Path, Table.
type Snapshot struct {
	// Name is the file name of Data; its extension picks the format.
	Name  string
	Data  []byte
	Path  string
	Table string
}

// Describe names the snapshot for logs.
func (s Snapshot) Describe() string {
	switch {
	case len(s.Data) > 0:
		return "upload:" + s.Name
	case s.Path != "":
		return "file:" + s.Path
	}
	return "table:" + s.Table
}

// DiffOptions controls a tracking diff.
type DiffOptions struct {
	Old Snapshot
	New Snapshot
	// ExportDate is stamped on every change record.
	ExportDate time.Time
	// Record appends the changes to the change log.
	Record bool
	// Archive uploads an xlsx report to object storage.
	Archive bool
}

// DiffSummary counts changes by type.
type DiffSummary struct {
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
	FieldUpdates int `json:"field_updates"`
}

// DiffResult is the outcome of a tracking diff.
type DiffResult struct {
	RunID     string                   `json:"run_id"`
	Changes   []reconcile.ChangeRecord `json:"changes"`
	Summary   DiffSummary              `json:"summary"`
	Recorded  bool                     `json:"recorded"`
	ReportKey string                   `json:"report_key,omitempty"`
}

// Service diffs two species tracking snapshots.
type Service struct {
	cfg     Config
	db      *gorm.DB
	client  storage.Client
	bucket  string
	changes *changelog.Store
	logger  *zap.Logger
	jobs    int
}

// NewService creates a new tracking service. db and client may be nil.
func NewService(cfg Config, db *gorm.DB, client storage.Client, bucket string, logger *zap.Logger, jobs int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{cfg: cfg, db: db, client: client, bucket: bucket, logger: logger, jobs: jobs}
	if db != nil {
		s.changes = changelog.NewStore(db, 0)
	}
	return s
}

func (s *Service) source(snap Snapshot) reconcile.Source {
	switch {
	case len(snap.Data) > 0, snap.Path != "":
		return reconcile.SourceFunc(func(ctx context.Context, identifierField string, _ []string) (reconcile.Snapshot, error) {
			var (
				table *sheet.Table
				err   error
			)
			if len(snap.Data) > 0 {
				table, err = sheet.Read(snap.Name, bytes.NewReader(snap.Data))
			} else {
				table, err = sheet.ReadFile(snap.Path)
			}
			if err != nil {
				return nil, err
			}
			if !table.HasColumn(identifierField) {
				return nil, fmt.Errorf("%s has no %s column", snap.Describe(), identifierField)
			}
			return table.Records(), nil
		})
	}
	return database.NewTableSource(s.db, snap.Table)
}

// withDefaults fills unset sides with the configured tables.
func (s *Service) withDefaults(opts DiffOptions) DiffOptions {
	if len(opts.Old.Data) == 0 && opts.Old.Path == "" && opts.Old.Table == "" {
		opts.Old.Table = s.cfg.OldTable
	}
	if len(opts.New.Data) == 0 && opts.New.Path == "" && opts.New.Table == "" {
		opts.New.Table = s.cfg.NewTable
	}
	if opts.ExportDate.IsZero() {
		opts.ExportDate = time.Now()
	}
	return opts
}

// Diff reconciles the old and new snapshots and optionally records and
// archives the changes.
func (s *Service) Diff(ctx context.Context, opts DiffOptions) (*DiffResult, error) {
	opts = s.withDefaults(opts)
	runID := uuid.NewString()
	l := s.logger.With(
		zap.String("run_id", runID),
		zap.String("old", opts.Old.Describe()),
		zap.String("new", opts.New.Describe()),
	)

	spec := &reconcile.Spec{
		Name:            Dataset,
		IdentifierField: s.cfg.IdentifierField,
		TrackedFields:   s.cfg.TrackedFields,
		Old:             s.source(opts.Old),
		New:             s.source(opts.New),
		Jobs:            s.jobs,
	}

	cache, err := reconcile.BuildCache(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracking snapshots: %w", err)
	}
	changes, err := reconcile.DiffConcurrent(ctx, cache.Old, cache.New, spec.TrackedFields, spec.IdentifierField, opts.ExportDate, s.jobs)
	if err != nil {
		return nil, err
	}

	result := &DiffResult{RunID: runID, Changes: changes, Summary: summarize(changes)}
	l.Info("Tracking diff finished",
		zap.Int("old_records", cache.Old.Len()),
		zap.Int("new_records", cache.New.Len()),
		zap.Int("additions", result.Summary.Additions),
		zap.Int("deletions", result.Summary.Deletions),
		zap.Int("field_updates", result.Summary.FieldUpdates),
	)

	if opts.Record {
		if s.changes == nil {
			return result, fmt.Errorf("change log: database not connected")
		}
		if err := s.changes.Migrate(ctx); err != nil {
			return result, err
		}
		if err := s.changes.Sink(runID, Dataset).Append(ctx, changes); err != nil {
			return result, err
		}
		result.Recorded = true
	}

	if opts.Archive {
		key, err := s.archive(ctx, runID, opts.ExportDate, changes)
		if err != nil {
			return result, err
		}
		result.ReportKey = key
	}

	return result, nil
}

func (s *Service) archive(ctx context.Context, runID string, exportDate time.Time, changes []reconcile.ChangeRecord) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("archive %s: storage not configured", runID)
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, changes); err != nil {
		return "", err
	}

	key := path.Join(s.cfg.ReportPrefix, Dataset, exportDate.Format("2006-01-02")+"-"+runID+".xlsx")
	const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if err := storage.WriteObject(ctx, s.client, s.bucket, key, buf.Bytes(), xlsxType); err != nil {
		return "", err
	}
	return key, nil
}

// WriteReport writes the changes as an xlsx workbook.
func WriteReport(w io.Writer, changes []reconcile.ChangeRecord) error {
	return sheet.WriteChanges(w, changes)
}

func summarize(changes []reconcile.ChangeRecord) DiffSummary {
	var sum DiffSummary
	for _, c := range changes {
		switch c.ChangeType {
		case reconcile.ChangeAddition:
			sum.Additions++
		case reconcile.ChangeDeletion:
			sum.Deletions++
		case reconcile.ChangeFieldUpdate:
			sum.FieldUpdates++
		}
	}
	return sum
}
