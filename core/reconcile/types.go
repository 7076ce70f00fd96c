package reconcile

import (
	"strings"
	"time"
)

// Record is a single row of a snapshot keyed by field name.
// Values are strings, numbers or nil; a missing key reads as nil.
type Record map[string]any

// Snapshot is an ordered collection of records sharing one identifier field.
type Snapshot []Record

// Side names the snapshot a record came from.
type Side string

const (
	// SideOld is the previously stored snapshot.
	SideOld Side = "old"
	// SideNew is the freshly exported snapshot.
	SideNew Side = "new"
)

// ChangeType classifies a ChangeRecord.
type ChangeType string

const (
	// ChangeAddition marks an identifier present only in the new snapshot.
	ChangeAddition ChangeType = "addition"
	// ChangeDeletion marks an identifier present only in the old snapshot.
	ChangeDeletion ChangeType = "deletion"
	// ChangeFieldUpdate marks a tracked field whose value differs between snapshots.
	ChangeFieldUpdate ChangeType = "field_update"
)

// ChangeRecord describes one detected difference between two snapshots.
type ChangeRecord struct {
	// Identifier is the canonical text form of the record identifier.
	Identifier string `json:"identifier"`

	// ChangeType is addition, deletion or field_update.
	ChangeType ChangeType `json:"change_type"`

	// FieldName is set only for field_update.
	FieldName string `json:"field_name,omitempty"`

	// OldValue is the previous value. For a deletion it holds the identifier,
	// for an addition it is nil.
	OldValue any `json:"old_value"`

	// NewValue is the current value. For an addition it holds the identifier,
	// for a deletion it is nil.
	NewValue any `json:"new_value"`

	// ObservedAt is supplied by the caller and constant for a run.
	ObservedAt time.Time `json:"observed_at"`
}

// Status is the per-identifier outcome of a reconciliation.
type Status string

const (
	// StatusNew means the identifier only exists in the new snapshot.
	StatusNew Status = "new"
	// StatusUpdated means at least one tracked field changed.
	StatusUpdated Status = "updated"
	// StatusUnchanged means no tracked field changed.
	StatusUnchanged Status = "unchanged"
	// StatusMissing means the identifier only exists in the old snapshot.
	StatusMissing Status = "missing"
	// StatusNotFound means the identifier exists in neither snapshot.
	StatusNotFound Status = "not_found"
)

// Result is the reconciliation outcome for a single identifier.
type Result struct {
	Identifier string         `json:"identifier"`
	Status     Status         `json:"status"`
	Changes    []ChangeRecord `json:"changes"`
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionInsert inserts a record that only exists in the new snapshot.
	ActionInsert ActionType = "insert"
	// ActionUpdate overwrites the changed fields of an existing record.
	ActionUpdate ActionType = "update"
	// ActionDelete removes a record absent from the new snapshot.
	ActionDelete ActionType = "delete"
)

// Action represents a planned mutation operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Key is the canonical identifier.
	Key string `json:"key"`

	// Value is the identifier as it appeared in the snapshot.
	Value any `json:"-"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`

	// Record holds the full new record for inserts and only the changed
	// fields for updates. Empty for deletes.
	Record Record `json:"-"`
}

// Plan contains the change records, per-identifier results and planned actions.
type Plan struct {
	// Changes is the ordered reconcile output.
	Changes []ChangeRecord `json:"changes"`

	// Results lists every identifier that is not unchanged, in identifier order.
	Results []Result `json:"results"`

	// Actions contains planned mutation operations.
	Actions []Action `json:"actions"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`

	// ObservedAt is the timestamp stamped on every change record.
	ObservedAt time.Time `json:"observed_at"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	TotalItems   int `json:"total_items"`
	New          int `json:"new"`
	Updated      int `json:"updated"`
	Unchanged    int `json:"unchanged"`
	Missing      int `json:"missing"`
	FieldUpdates int `json:"field_updates"`

	InsertActions int `json:"insert_actions"`
	UpdateActions int `json:"update_actions"`
	DeleteActions int `json:"delete_actions"`
}

// Options controls how a plan is built and applied.
type Options struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool

	// DoPurge plans deletion of records missing from the new snapshot.
	DoPurge bool

	// Confirmed indicates the operator approved the mutations.
	// If false, mutations will not execute regardless of DryRun.
	Confirmed bool

	// Progress, when set, is called with the number of actions executed so far.
	Progress func(done int)
}

// Spec describes one reconciliation: what to compare and where the snapshots come from.
type Spec struct {
	// Name identifies the dataset, e.g. "observations".
	Name string

	// Source tells apart snapshots of the same dataset read from different
	// places, e.g. an uploaded export and the configured one. Cached
	// indices are only shared between specs with the same Source.
	Source string

	// IdentifierField is the field that keys records in both snapshots.
	IdentifierField string

	// TrackedFields are compared in this order. Duplicates and the
	// identifier field are ignored.
	TrackedFields []string

	// Old loads the previously stored snapshot.
	Old Source

	// New loads the current snapshot.
	New Source

	// CacheTTL is the time-to-live for cached indices.
	// If zero, caching is disabled.
	CacheTTL time.Duration

	// Jobs bounds the number of fields diffed concurrently. Values below 2
	// run the sequential diff.
	Jobs int
}

// CacheKey returns a unique key for caching based on spec parameters.
func (s *Spec) CacheKey() string {
	return s.Name + "|" + s.Source + "|" + s.IdentifierField + "|" + strings.Join(s.TrackedFields, ",")
}

// Fields returns the tracked fields in order without duplicates or the identifier field.
func (s *Spec) Fields() []string {
	return normalizeFields(s.TrackedFields, s.IdentifierField)
}

func normalizeFields(fields []string, identifierField string) []string {
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == identifierField {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
