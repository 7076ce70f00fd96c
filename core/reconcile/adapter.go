package reconcile

import (
	"context"
)

// Source loads every current record of a dataset.
// fields is a projection hint; implementations may return more fields but
// must always include identifierField.
type Source interface {
	Snapshot(ctx context.Context, identifierField string, fields []string) (Snapshot, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, identifierField string, fields []string) (Snapshot, error)

// Snapshot calls f.
func (f SourceFunc) Snapshot(ctx context.Context, identifierField string, fields []string) (Snapshot, error) {
	return f(ctx, identifierField, fields)
}

// Static returns a Source that always yields the given snapshot.
func Static(s Snapshot) Source {
	return SourceFunc(func(context.Context, string, []string) (Snapshot, error) {
		return s, nil
	})
}

// Sink persists change records in the order given and assigns their storage identity.
type Sink interface {
	Append(ctx context.Context, changes []ChangeRecord) error
}

// Applier writes planned actions to the destination dataset, keyed by identifier.
// Implementations may also implement InsertBatcher, UpdateBatcher and
// DeleteBatcher; ApplyPlan prefers those when present.
type Applier interface {
	// Insert adds action.Record as a new row.
	Insert(ctx context.Context, action Action) error

	// Update overwrites the fields in action.Record on the row keyed by action.Value.
	Update(ctx context.Context, action Action) error

	// Delete removes the row keyed by action.Value.
	Delete(ctx context.Context, action Action) error
}

// InsertBatcher inserts many rows at once.
type InsertBatcher interface {
	InsertBatch(ctx context.Context, actions []Action) error
}

// UpdateBatcher updates many rows at once.
type UpdateBatcher interface {
	UpdateBatch(ctx context.Context, actions []Action) error
}

// DeleteBatcher deletes many rows at once.
type DeleteBatcher interface {
	DeleteBatch(ctx context.Context, actions []Action) error
}
