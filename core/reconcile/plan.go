package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ReconcileWithPlan loads both snapshots, reconciles them and returns a plan.
// It does NOT execute actions; use ApplyPlan for that.
// The freshly built indices replace any cached ones so targeted lookups see
// the same snapshots as the plan.
func ReconcileWithPlan(ctx context.Context, spec *Spec, observedAt time.Time, opts Options) (*Plan, error) {
	cache, err := BuildCache(ctx, spec)
	if err != nil {
		return nil, err
	}
	StoreCache(spec, cache)

	return BuildPlan(ctx, cache, spec, observedAt, opts)
}

// BuildPlan reconciles the cached indices and derives results and actions.
func BuildPlan(ctx context.Context, cache *ReconcileCache, spec *Spec, observedAt time.Time, opts Options) (*Plan, error) {
	changes, err := DiffConcurrent(ctx, cache.Old, cache.New, spec.TrackedFields, spec.IdentifierField, observedAt, spec.Jobs)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Changes:    changes,
		Results:    []Result{},
		Actions:    []Action{},
		ObservedAt: observedAt,
	}

	byKey := make(map[string][]ChangeRecord)
	for _, c := range changes {
		byKey[c.Identifier] = append(byKey[c.Identifier], c)
		if c.ChangeType == ChangeFieldUpdate {
			plan.Summary.FieldUpdates++
		}
	}

	for _, key := range unionKeys(cache.Old, cache.New) {
		result := Result{
			Identifier: key,
			Status:     statusOf(key, cache.Old, cache.New, len(byKey[key]) > 0),
			Changes:    byKey[key],
		}
		plan.Summary.TotalItems++

		switch result.Status {
		case StatusNew:
			plan.Summary.New++
			plan.Actions = append(plan.Actions, Action{
				Type:   ActionInsert,
				Key:    key,
				Value:  cache.New.Values[key],
				Reason: "not in stored snapshot",
				Record: cache.New.Records[key],
			})
			plan.Summary.InsertActions++
		case StatusUpdated:
			plan.Summary.Updated++
			fields := make(Record, len(result.Changes))
			names := make([]string, 0, len(result.Changes))
			for _, c := range result.Changes {
				fields[c.FieldName] = c.NewValue
				names = append(names, c.FieldName)
			}
			plan.Actions = append(plan.Actions, Action{
				Type:   ActionUpdate,
				Key:    key,
				Value:  cache.Old.Values[key],
				Reason: "changed: " + strings.Join(names, ", "),
				Record: fields,
			})
			plan.Summary.UpdateActions++
		case StatusMissing:
			plan.Summary.Missing++
			if opts.DoPurge {
				plan.Actions = append(plan.Actions, Action{
					Type:   ActionDelete,
					Key:    key,
					Value:  cache.Old.Values[key],
					Reason: "not in current snapshot",
				})
				plan.Summary.DeleteActions++
			}
		case StatusUnchanged:
			plan.Summary.Unchanged++
			continue
		}

		plan.Results = append(plan.Results, result)
	}

	return plan, nil
}

// ApplyPlan executes the actions in a plan through the applier.
// Returns the number of actions executed and any error encountered.
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute.
func ApplyPlan(ctx context.Context, applier Applier, plan *Plan, opts Options) (executed int, err error) {
	if !opts.Confirmed || opts.DryRun {
		return 0, nil
	}

	var inserts, updates, deletes []Action
	for _, action := range plan.Actions {
		switch action.Type {
		case ActionInsert:
			inserts = append(inserts, action)
		case ActionUpdate:
			updates = append(updates, action)
		case ActionDelete:
			deletes = append(deletes, action)
		}
	}

	progress := func() {
		if opts.Progress != nil {
			opts.Progress(executed)
		}
	}

	if len(inserts) > 0 {
		if batcher, ok := applier.(InsertBatcher); ok {
			if err := batcher.InsertBatch(ctx, inserts); err != nil {
				return executed, fmt.Errorf("failed to batch insert: %w", err)
			}
			executed += len(inserts)
			progress()
		} else {
			for _, action := range inserts {
				if err := applier.Insert(ctx, action); err != nil {
					return executed, fmt.Errorf("failed to insert %s: %w", action.Key, err)
				}
				executed++
				progress()
			}
		}
	}

	if len(updates) > 0 {
		if batcher, ok := applier.(UpdateBatcher); ok {
			if err := batcher.UpdateBatch(ctx, updates); err != nil {
				return executed, fmt.Errorf("failed to batch update: %w", err)
			}
			executed += len(updates)
			progress()
		} else {
			for _, action := range updates {
				if err := applier.Update(ctx, action); err != nil {
					return executed, fmt.Errorf("failed to update %s: %w", action.Key, err)
				}
				executed++
				progress()
			}
		}
	}

	if len(deletes) > 0 {
		if batcher, ok := applier.(DeleteBatcher); ok {
			if err := batcher.DeleteBatch(ctx, deletes); err != nil {
				return executed, fmt.Errorf("failed to batch delete: %w", err)
			}
			executed += len(deletes)
			progress()
		} else {
			for _, action := range deletes {
				if err := applier.Delete(ctx, action); err != nil {
					return executed, fmt.Errorf("failed to delete %s: %w", action.Key, err)
				}
				executed++
				progress()
			}
		}
	}

	return executed, nil
}

// ReconcileAndApply is a convenience wrapper that plans and optionally applies actions.
// The cached indices are dropped after a successful apply.
func ReconcileAndApply(ctx context.Context, spec *Spec, applier Applier, observedAt time.Time, opts Options) (*Plan, int, error) {
	plan, err := ReconcileWithPlan(ctx, spec, observedAt, opts)
	if err != nil {
		return nil, 0, err
	}

	executed, err := ApplyPlan(ctx, applier, plan, opts)
	if executed > 0 {
		InvalidateCache(spec)
	}
	return plan, executed, err
}

// ReconcileOne reconciles a single identifier. Cached indices are used when
// the spec enables caching; otherwise both snapshots are loaded fresh.
func ReconcileOne(ctx context.Context, spec *Spec, identifier string, observedAt time.Time) (*Result, error) {
	var (
		cache *ReconcileCache
		err   error
	)
	if spec.CacheTTL > 0 {
		cache, err = GetOrBuildCache(ctx, spec)
	} else {
		cache, err = BuildCache(ctx, spec)
	}
	if err != nil {
		return nil, err
	}

	result := resultFor(identifier, cache, spec, observedAt)
	return &result, nil
}

func resultFor(key string, cache *ReconcileCache, spec *Spec, observedAt time.Time) Result {
	inOld, inNew := cache.Old.Has(key), cache.New.Has(key)
	result := Result{Identifier: key, Changes: []ChangeRecord{}}

	switch {
	case !inOld && !inNew:
		result.Status = StatusNotFound
	case !inOld:
		result.Status = StatusNew
		result.Changes = append(result.Changes, ChangeRecord{
			Identifier: key,
			ChangeType: ChangeAddition,
			NewValue:   cache.New.Values[key],
			ObservedAt: observedAt,
		})
	case !inNew:
		result.Status = StatusMissing
		result.Changes = append(result.Changes, ChangeRecord{
			Identifier: key,
			ChangeType: ChangeDeletion,
			OldValue:   cache.Old.Values[key],
			ObservedAt: observedAt,
		})
	default:
		for _, field := range spec.Fields() {
			ov, nv := cache.Old.Records[key][field], cache.New.Records[key][field]
			if ValuesEqual(ov, nv) {
				continue
			}
			result.Changes = append(result.Changes, ChangeRecord{
				Identifier: key,
				ChangeType: ChangeFieldUpdate,
				FieldName:  field,
				OldValue:   ov,
				NewValue:   nv,
				ObservedAt: observedAt,
			})
		}
		result.Status = statusOf(key, cache.Old, cache.New, len(result.Changes) > 0)
	}

	return result
}

func statusOf(key string, oldIdx, newIdx *Index, changed bool) Status {
	inOld, inNew := oldIdx.Has(key), newIdx.Has(key)
	switch {
	case inOld && inNew && changed:
		return StatusUpdated
	case inOld && inNew:
		return StatusUnchanged
	case inNew:
		return StatusNew
	case inOld:
		return StatusMissing
	}
	return StatusNotFound
}

// unionKeys returns every identifier of both indices, ascending.
func unionKeys(oldIdx, newIdx *Index) []string {
	keys := make([]string, 0, oldIdx.Len()+newIdx.Len())
	keys = append(keys, oldIdx.Keys...)
	for _, key := range newIdx.Keys {
		if !oldIdx.Has(key) {
			keys = append(keys, key)
		}
	}
	SortIdentifiers(keys)
	return keys
}
