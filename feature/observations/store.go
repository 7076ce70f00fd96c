package observations

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"commscivet/core/database"
	"commscivet/core/reconcile"

	"gorm.io/gorm"
)

// Store reads and writes the vetting feature table. It is the stored
// snapshot of a run and the applier of its plan.
type Store struct {
	db         *gorm.DB
	table      string
	idField    string
	importDate string
	batchSize  int

	mu      sync.Mutex
	columns map[string]string
	kinds   map[string]database.ValueKind
}

// NewStore returns a store stamping rows with the import date of observedAt.
func NewStore(db *gorm.DB, cfg Config, observedAt time.Time) *Store {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Store{
		db:         db,
		table:      cfg.Table,
		idField:    cfg.IdentifierField,
		importDate: observedAt.Format(cfg.ImportDateLayout),
		batchSize:  batchSize,
	}
}

// Snapshot loads the identifier and tracked columns of the table.
func (s *Store) Snapshot(ctx context.Context, identifierField string, fields []string) (reconcile.Snapshot, error) {
	return database.NewTableSource(s.db, s.table).Snapshot(ctx, identifierField, fields)
}

// tableColumns returns the table columns keyed by lower-case name, loaded once.
func (s *Store) tableColumns(ctx context.Context) (map[string]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("table %s: database not connected", s.table)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.columns != nil {
		return s.columns, nil
	}

	cols, err := database.GetTableColumns(s.db.WithContext(ctx), s.table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found", s.table)
	}
	s.columns = database.ColumnSet(cols)
	s.kinds = database.ColumnKinds(cols)
	return s.columns, nil
}

// Render returns the snapshot with fields rendered the way Snapshot renders
// the table's values, so both sides compare as text of the same form.
func (s *Store) Render(ctx context.Context, snapshot reconcile.Snapshot, fields []string) (reconcile.Snapshot, error) {
	if _, err := s.tableColumns(ctx); err != nil {
		return nil, err
	}
	out := make(reconcile.Snapshot, 0, len(snapshot))
	for _, rec := range snapshot {
		out = append(out, database.RenderRecord(rec, s.kinds, fields))
	}
	return out, nil
}

// row maps a record onto the table's columns and stamps status and date.
// Fields without a column are dropped.
func (s *Store) row(columns map[string]string, rec reconcile.Record, status string) map[string]any {
	out := make(map[string]any, len(rec)+2)
	for name, v := range rec {
		if col, ok := columns[strings.ToLower(name)]; ok {
			out[col] = v
		}
	}
	if col, ok := columns[ColumnRecordStatus]; ok {
		out[col] = status
	}
	if col, ok := columns[ColumnImportDate]; ok {
		out[col] = s.importDate
	}
	return out
}

func (s *Store) idColumn(columns map[string]string) (string, error) {
	col, ok := columns[strings.ToLower(s.idField)]
	if !ok {
		return "", fmt.Errorf("table %s has no identifier column %s", s.table, s.idField)
	}
	return col, nil
}

// Insert adds one new observation.
func (s *Store) Insert(ctx context.Context, action reconcile.Action) error {
	return s.InsertBatch(ctx, []reconcile.Action{action})
}

// InsertBatch adds new observations in one transaction.
func (s *Store) InsertBatch(ctx context.Context, actions []reconcile.Action) error {
	if len(actions) == 0 {
		return nil
	}

	columns, err := s.tableColumns(ctx)
	if err != nil {
		return err
	}

	rows := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, s.row(columns, a.Record, RecordStatusNew))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Table(s.table).CreateInBatches(rows, s.batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("failed to insert %d rows into %s: %w", len(rows), s.table, err)
	}
	return nil
}

// Update overwrites the changed fields of one observation.
func (s *Store) Update(ctx context.Context, action reconcile.Action) error {
	return s.UpdateBatch(ctx, []reconcile.Action{action})
}

// UpdateBatch overwrites changed fields in one transaction. An update that
// matches no row fails the whole batch.
func (s *Store) UpdateBatch(ctx context.Context, actions []reconcile.Action) error {
	if len(actions) == 0 {
		return nil
	}

	columns, err := s.tableColumns(ctx)
	if err != nil {
		return err
	}
	idCol, err := s.idColumn(columns)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range actions {
			updates := s.row(columns, a.Record, RecordStatusUpdated)
			delete(updates, idCol)
			if len(updates) == 0 {
				continue
			}

			result := tx.Table(s.table).Where(idCol+" = ?", a.Value).Updates(updates)
			if result.Error != nil {
				return fmt.Errorf("failed to update %s: %w", a.Key, result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("no rows updated for %s", a.Key)
			}
		}
		return nil
	})
}

// Delete removes one observation.
func (s *Store) Delete(ctx context.Context, action reconcile.Action) error {
	return s.DeleteBatch(ctx, []reconcile.Action{action})
}

// DeleteBatch removes observations with a single IN clause.
func (s *Store) DeleteBatch(ctx context.Context, actions []reconcile.Action) error {
	if len(actions) == 0 {
		return nil
	}

	columns, err := s.tableColumns(ctx)
	if err != nil {
		return err
	}
	idCol, err := s.idColumn(columns)
	if err != nil {
		return err
	}

	ids := make([]any, 0, len(actions))
	for _, a := range actions {
		ids = append(ids, a.Value)
	}

	result := s.db.WithContext(ctx).
		Table(s.table).
		Where(idCol+" IN ?", ids).
		Delete(nil)
	if result.Error != nil {
		return fmt.Errorf("failed to delete from %s: %w", s.table, result.Error)
	}
	return nil
}
