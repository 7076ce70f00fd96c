package reconcile

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// ReconcileConcurrent is Reconcile with the field diff split across up to
// jobs goroutines, one tracked field per task. The output is identical to
// Reconcile for the same inputs.
func ReconcileConcurrent(ctx context.Context, old, current Snapshot, trackedFields []string, identifierField string, observedAt time.Time, jobs int) ([]ChangeRecord, error) {
	var (
		oldIdx, newIdx *Index
		oldErr, newErr error
	)

	g := new(errgroup.Group)
	g.Go(func() error {
		oldIdx, oldErr = NewIndex(SideOld, old, identifierField)
		return nil
	})
	g.Go(func() error {
		newIdx, newErr = NewIndex(SideNew, current, identifierField)
		return nil
	})
	_ = g.Wait()

	// old is reported first so the error matches the sequential path
	if oldErr != nil {
		return nil, oldErr
	}
	if newErr != nil {
		return nil, newErr
	}

	return DiffConcurrent(ctx, oldIdx, newIdx, trackedFields, identifierField, observedAt, jobs)
}

// DiffConcurrent is Diff with one task per tracked field.
func DiffConcurrent(ctx context.Context, oldIdx, newIdx *Index, trackedFields []string, identifierField string, observedAt time.Time, jobs int) ([]ChangeRecord, error) {
	fields := normalizeFields(trackedFields, identifierField)
	if jobs < 2 || len(fields) < 2 {
		return Diff(oldIdx, newIdx, fields, identifierField, observedAt), nil
	}

	shared := sharedKeys(oldIdx, newIdx)
	perField := make([][]ChangeRecord, len(fields))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, field := range fields {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perField[i] = fieldChanges(oldIdx, newIdx, shared, field, observedAt)
			return nil
		})
	}

	identity := identityChanges(oldIdx, newIdx, observedAt)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	changes := identity
	for _, fc := range perField {
		changes = append(changes, fc...)
	}
	return changes, nil
}
