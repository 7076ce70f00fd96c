package reconcile

import (
	"time"
)

// Index is a validated snapshot keyed by canonical identifier.
type Index struct {
	// Keys lists every identifier in ascending identifier order.
	Keys []string

	// Records maps identifier to its record.
	Records map[string]Record

	// Values maps identifier to the identifier value as it appeared in the record.
	Values map[string]any
}

// NewIndex validates a snapshot and indexes it by identifier.
// The first record with a missing or repeated identifier aborts with a
// *MalformedRecordError. The snapshot is not modified.
func NewIndex(side Side, snapshot Snapshot, identifierField string) (*Index, error) {
	idx := &Index{
		Keys:    make([]string, 0, len(snapshot)),
		Records: make(map[string]Record, len(snapshot)),
		Values:  make(map[string]any, len(snapshot)),
	}

	for i, rec := range snapshot {
		raw := rec[identifierField]
		key, ok := IdentifierKey(raw)
		if !ok {
			return nil, &MalformedRecordError{Side: side, Index: i, Reason: ReasonMissingIdentifier}
		}
		if _, dup := idx.Records[key]; dup {
			return nil, &MalformedRecordError{Side: side, Index: i, Identifier: key, Reason: ReasonDuplicateIdentifier}
		}
		idx.Keys = append(idx.Keys, key)
		idx.Records[key] = rec
		idx.Values[key] = raw
	}

	SortIdentifiers(idx.Keys)
	return idx, nil
}

// Has reports whether the identifier is present.
func (idx *Index) Has(key string) bool {
	_, ok := idx.Records[key]
	return ok
}

// Len returns the number of indexed records.
func (idx *Index) Len() int {
	return len(idx.Keys)
}

// Reconcile compares two snapshots and returns the ordered change records.
//
// Both snapshots are validated before anything is compared, old first.
// Additions and deletions come first in ascending identifier order, then
// field updates grouped by tracked field in the given order with identifiers
// ascending inside each field. The inputs are never modified.
func Reconcile(old, current Snapshot, trackedFields []string, identifierField string, observedAt time.Time) ([]ChangeRecord, error) {
	oldIdx, err := NewIndex(SideOld, old, identifierField)
	if err != nil {
		return nil, err
	}
	newIdx, err := NewIndex(SideNew, current, identifierField)
	if err != nil {
		return nil, err
	}
	return Diff(oldIdx, newIdx, trackedFields, identifierField, observedAt), nil
}

// Diff compares two validated indices. See Reconcile for ordering.
func Diff(oldIdx, newIdx *Index, trackedFields []string, identifierField string, observedAt time.Time) []ChangeRecord {
	changes := identityChanges(oldIdx, newIdx, observedAt)
	shared := sharedKeys(oldIdx, newIdx)
	for _, field := range normalizeFields(trackedFields, identifierField) {
		changes = append(changes, fieldChanges(oldIdx, newIdx, shared, field, observedAt)...)
	}
	return changes
}

// identityChanges merges deletions and additions into one ascending run.
func identityChanges(oldIdx, newIdx *Index, observedAt time.Time) []ChangeRecord {
	var changes []ChangeRecord

	deletion := func(key string) ChangeRecord {
		return ChangeRecord{
			Identifier: key,
			ChangeType: ChangeDeletion,
			OldValue:   oldIdx.Values[key],
			ObservedAt: observedAt,
		}
	}
	addition := func(key string) ChangeRecord {
		return ChangeRecord{
			Identifier: key,
			ChangeType: ChangeAddition,
			NewValue:   newIdx.Values[key],
			ObservedAt: observedAt,
		}
	}

	i, j := 0, 0
	for i < len(oldIdx.Keys) || j < len(newIdx.Keys) {
		switch {
		case j == len(newIdx.Keys):
			if !newIdx.Has(oldIdx.Keys[i]) {
				changes = append(changes, deletion(oldIdx.Keys[i]))
			}
			i++
		case i == len(oldIdx.Keys):
			if !oldIdx.Has(newIdx.Keys[j]) {
				changes = append(changes, addition(newIdx.Keys[j]))
			}
			j++
		default:
			oKey, nKey := oldIdx.Keys[i], newIdx.Keys[j]
			c := CompareIdentifiers(oKey, nKey)
			switch {
			case c == 0:
				i++
				j++
			case c < 0:
				if !newIdx.Has(oKey) {
					changes = append(changes, deletion(oKey))
				}
				i++
			default:
				if !oldIdx.Has(nKey) {
					changes = append(changes, addition(nKey))
				}
				j++
			}
		}
	}
	return changes
}

// sharedKeys returns identifiers present in both indices, ascending.
func sharedKeys(oldIdx, newIdx *Index) []string {
	shared := make([]string, 0, min(oldIdx.Len(), newIdx.Len()))
	for _, key := range oldIdx.Keys {
		if newIdx.Has(key) {
			shared = append(shared, key)
		}
	}
	return shared
}

func fieldChanges(oldIdx, newIdx *Index, shared []string, field string, observedAt time.Time) []ChangeRecord {
	var changes []ChangeRecord
	for _, key := range shared {
		ov := oldIdx.Records[key][field]
		nv := newIdx.Records[key][field]
		if ValuesEqual(ov, nv) {
			continue
		}
		changes = append(changes, ChangeRecord{
			Identifier: key,
			ChangeType: ChangeFieldUpdate,
			FieldName:  field,
			OldValue:   ov,
			NewValue:   nv,
			ObservedAt: observedAt,
		})
	}
	return changes
}
