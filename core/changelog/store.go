package changelog

import (
	"context"
	"fmt"

	"commscivet/core/reconcile"

	"gorm.io/gorm"
)

const defaultBatchSize = 500

// Store persists change records in the change_log table.
type Store struct {
	db        *gorm.DB
	batchSize int
}

// NewStore returns a store writing in batches of batchSize rows (500 when not positive).
func NewStore(db *gorm.DB, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Store{db: db, batchSize: batchSize}
}

// Migrate creates or updates the change_log table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("failed to migrate change log: %w", err)
	}
	return nil
}

// Append stores the changes of one run in a single transaction, keeping
// their order in the sequence column.
func (s *Store) Append(ctx context.Context, runID, dataset string, changes []reconcile.ChangeRecord) error {
	return s.insert(ctx, runID, dataset, 0, changes)
}

func (s *Store) insert(ctx context.Context, runID, dataset string, offset int, changes []reconcile.ChangeRecord) error {
	if len(changes) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(changes))
	for i, c := range changes {
		entries = append(entries, NewEntry(runID, dataset, offset+i, c))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&entries, s.batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("failed to append %d changes for run %s: %w", len(changes), runID, err)
	}
	return nil
}

// List returns the entries of a run in their original order.
func (s *Store) List(ctx context.Context, runID string) ([]Entry, error) {
	var entries []Entry
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("sequence ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list changes for run %s: %w", runID, err)
	}
	return entries, nil
}

// Sink binds the store to one run so it satisfies reconcile.Sink.
func (s *Store) Sink(runID, dataset string) reconcile.Sink {
	return &runSink{store: s, runID: runID, dataset: dataset}
}

type runSink struct {
	store   *Store
	runID   string
	dataset string
	written int
}

// Append keeps numbering across calls so a run may be written in pieces.
func (r *runSink) Append(ctx context.Context, changes []reconcile.ChangeRecord) error {
	if err := r.store.insert(ctx, r.runID, r.dataset, r.written, changes); err != nil {
		return err
	}
	r.written += len(changes)
	return nil
}
