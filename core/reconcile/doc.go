// Package reconcile compares two snapshots of keyed records and reports what
// changed between them.
//
// The core is the pure function Reconcile: given an old and a new snapshot,
// the tracked fields and the identifier field, it returns an ordered list of
// ChangeRecords. Identity changes (additions and deletions) come first in
// ascending identifier order, followed by field updates grouped by tracked
// field. Both snapshots are validated up front; a missing or duplicate
// identifier fails the whole run with a *MalformedRecordError.
//
// # Architecture
//
// 1. Engine: validation, indexing and the diff itself (Reconcile, Diff and
// the errgroup based ReconcileConcurrent).
//
// 2. Collaborators: a Source loads a snapshot, a Sink persists change records
// and an Applier writes planned actions back to the destination dataset.
//
// 3. Plan: ReconcileWithPlan turns the diff into per-identifier results and
// insert/update/delete actions; ApplyPlan executes them only when confirmed
// and not in dry-run mode.
//
// 4. Cache: TTL-based caching layer with stampede protection for fast
// targeted lookups through ReconcileOne.
//
// # Usage Example
//
//	spec := &reconcile.Spec{
//	    Name:            "observations",
//	    IdentifierField: "id",
//	    TrackedFields:   []string{"taxon_id", "quality_grade"},
//	    Old:             tableSource,
//	    New:             reconcile.Static(export),
//	}
//
//	plan, err := reconcile.ReconcileWithPlan(ctx, spec, time.Now(), opts)
//	executed, err := reconcile.ApplyPlan(ctx, applier, plan, opts)
package reconcile
