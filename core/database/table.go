package database

import (
	"context"
	"fmt"
	"strings"

	"commscivet/core/reconcile"

	"gorm.io/gorm"
)

// LoadRows reads every row of a table as records. When columns is not
// empty only those columns are selected. Byte values are returned as strings.
func LoadRows(ctx context.Context, db *gorm.DB, tableName string, columns []string) (reconcile.Snapshot, error) {
	var rows []map[string]interface{}

	q := db.WithContext(ctx).Table(tableName)
	if len(columns) > 0 {
		q = q.Select(columns)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load rows from %s: %w", tableName, err)
	}

	snapshot := make(reconcile.Snapshot, 0, len(rows))
	for _, row := range rows {
		rec := make(reconcile.Record, len(row))
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec[k] = v
		}
		snapshot = append(snapshot, rec)
	}
	return snapshot, nil
}

// TableSource is a reconcile.Source backed by a database table.
type TableSource struct {
	DB    *gorm.DB
	Table string
}

// NewTableSource returns a source reading the given table.
func NewTableSource(db *gorm.DB, table string) *TableSource {
	return &TableSource{DB: db, Table: table}
}

// Snapshot loads the identifier and requested fields. Fields the table does
// not have are skipped so they read as absent values. Field values are
// rendered as text for their column type (see RenderValue); the identifier
// is left as the driver returned it.
func (s *TableSource) Snapshot(ctx context.Context, identifierField string, fields []string) (reconcile.Snapshot, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("table %s: database not connected", s.Table)
	}

	existing, err := GetTableColumns(s.DB.WithContext(ctx), s.Table)
	if err != nil {
		return nil, err
	}
	set := ColumnSet(existing)
	kinds := ColumnKinds(existing)

	idColumn, ok := set[strings.ToLower(identifierField)]
	if !ok {
		return nil, fmt.Errorf("table %s has no identifier column %s", s.Table, identifierField)
	}

	selected := []string{idColumn}
	rename := map[string]string{idColumn: identifierField}
	for _, f := range fields {
		col, ok := set[strings.ToLower(f)]
		if !ok || col == idColumn {
			continue
		}
		if _, dup := rename[col]; dup {
			continue
		}
		selected = append(selected, col)
		rename[col] = f
	}

	rows, err := LoadRows(ctx, s.DB, s.Table, selected)
	if err != nil {
		return nil, err
	}

	// report values under the requested names even if the column case differs
	for _, rec := range rows {
		for col, name := range rename {
			v, ok := rec[col]
			if !ok {
				continue
			}
			if col != idColumn {
				v = RenderValue(kinds[strings.ToLower(col)], v)
			}
			delete(rec, col)
			rec[name] = v
		}
	}
	return rows, nil
}
