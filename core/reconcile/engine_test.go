package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var observed = time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)

// TestReconcile_AdditionAndDeletion covers an identifier dropped and one added.
func TestReconcile_AdditionAndDeletion(t *testing.T) {
	old := Snapshot{
		{"id": 1, "name": "Oak"},
		{"id": 2, "name": "Elm"},
	}
	current := Snapshot{
		{"id": 2, "name": "Elm"},
		{"id": 3, "name": "Pine"},
	}

	changes, err := Reconcile(old, current, []string{"name"}, "id", observed)
	require.NoError(t, err)

	assert.Equal(t, []ChangeRecord{
		{Identifier: "1", ChangeType: ChangeDeletion, OldValue: 1, ObservedAt: observed},
		{Identifier: "3", ChangeType: ChangeAddition, NewValue: 3, ObservedAt: observed},
	}, changes)
}

// TestReconcile_FieldUpdate covers a single tracked field change.
func TestReconcile_FieldUpdate(t *testing.T) {
	old := Snapshot{{"id": 5, "status": "pending"}}
	current := Snapshot{{"id": 5, "status": "approved"}}

	changes, err := Reconcile(old, current, []string{"status"}, "id", observed)
	require.NoError(t, err)

	assert.Equal(t, []ChangeRecord{
		{Identifier: "5", ChangeType: ChangeFieldUpdate, FieldName: "status", OldValue: "pending", NewValue: "approved", ObservedAt: observed},
	}, changes)
}

func TestReconcile_IdenticalSnapshots(t *testing.T) {
	snap := Snapshot{
		{"id": "a", "x": 1, "y": nil},
		{"id": "b", "x": 2, "y": "z"},
	}

	changes, err := Reconcile(snap, snap, []string{"x", "y"}, "id", observed)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestReconcile_EmptySnapshots(t *testing.T) {
	changes, err := Reconcile(nil, Snapshot{}, []string{"x"}, "id", observed)
	require.NoError(t, err)
	assert.Empty(t, changes)

	changes, err = Reconcile(nil, Snapshot{{"id": 1}, {"id": 2}}, nil, "id", observed)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, ChangeAddition, changes[0].ChangeType)
	assert.Equal(t, ChangeAddition, changes[1].ChangeType)
}

// TestReconcile_Ordering checks identity first, then field-major order.
func TestReconcile_Ordering(t *testing.T) {
	old := Snapshot{
		{"id": 10, "a": "1", "b": "1"},
		{"id": 2, "a": "1", "b": "1"},
		{"id": 7, "a": "x"},
		{"id": 1, "a": "1", "b": "1"},
	}
	current := Snapshot{
		{"id": 1, "a": "2", "b": "2"},
		{"id": 10, "a": "2", "b": "1"},
		{"id": 2, "a": "1", "b": "2"},
		{"id": 3, "a": "y"},
	}

	changes, err := Reconcile(old, current, []string{"b", "a"}, "id", observed)
	require.NoError(t, err)

	type key struct {
		id    string
		typ   ChangeType
		field string
	}
	var got []key
	for _, c := range changes {
		got = append(got, key{c.Identifier, c.ChangeType, c.FieldName})
	}

	assert.Equal(t, []key{
		{"3", ChangeAddition, ""},
		{"7", ChangeDeletion, ""},
		{"1", ChangeFieldUpdate, "b"},
		{"2", ChangeFieldUpdate, "b"},
		{"1", ChangeFieldUpdate, "a"},
		{"10", ChangeFieldUpdate, "a"},
	}, got)
}

func TestReconcile_NullSemantics(t *testing.T) {
	old := Snapshot{
		{"id": 1, "f": nil},
		{"id": 2, "f": ""},
		{"id": 3},
		{"id": 4, "f": "x"},
		{"id": 5, "f": nil},
	}
	current := Snapshot{
		{"id": 1, "f": ""},
		{"id": 2, "f": nil},
		{"id": 3, "f": nil},
		{"id": 4},
		{"id": 5},
	}

	changes, err := Reconcile(old, current, []string{"f"}, "id", observed)
	require.NoError(t, err)
	require.Len(t, changes, 3)

	assert.Equal(t, "1", changes[0].Identifier)
	assert.Nil(t, changes[0].OldValue)
	assert.Equal(t, "", changes[0].NewValue)

	assert.Equal(t, "2", changes[1].Identifier)
	assert.Equal(t, "", changes[1].OldValue)
	assert.Nil(t, changes[1].NewValue)

	assert.Equal(t, "4", changes[2].Identifier)
	assert.Equal(t, "x", changes[2].OldValue)
	assert.Nil(t, changes[2].NewValue)
}

func TestReconcile_NoNormalization(t *testing.T) {
	old := Snapshot{{"id": 1, "name": "Oak"}, {"id": 2, "name": "oak"}}
	current := Snapshot{{"id": 1, "name": "Oak "}, {"id": 2, "name": "Oak"}}

	changes, err := Reconcile(old, current, []string{"name"}, "id", observed)
	require.NoError(t, err)
	assert.Len(t, changes, 2)
}

func TestReconcile_StringFormComparison(t *testing.T) {
	old := Snapshot{{"id": 1, "n": 5, "lat": 40.5}}
	current := Snapshot{{"id": "1", "n": "5", "lat": "40.5"}}

	changes, err := Reconcile(old, current, []string{"n", "lat"}, "id", observed)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestReconcile_IdentifierFieldNotTracked(t *testing.T) {
	old := Snapshot{{"id": 1, "name": "Oak"}}
	current := Snapshot{{"id": 1, "name": "Elm"}}

	changes, err := Reconcile(old, current, []string{"id", "name", "name"}, "id", observed)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "name", changes[0].FieldName)
}

func TestReconcile_MalformedRecords(t *testing.T) {
	tests := []struct {
		name       string
		old        Snapshot
		current    Snapshot
		side       Side
		index      int
		identifier string
		reason     string
	}{
		{
			name:    "missing in old",
			old:     Snapshot{{"id": 1}, {"name": "x"}},
			current: Snapshot{{"id": 1}},
			side:    SideOld,
			index:   1,
			reason:  ReasonMissingIdentifier,
		},
		{
			name:    "null in new",
			old:     Snapshot{{"id": 1}},
			current: Snapshot{{"id": nil}},
			side:    SideNew,
			index:   0,
			reason:  ReasonMissingIdentifier,
		},
		{
			name:    "blank string",
			old:     Snapshot{{"id": "  "}},
			current: nil,
			side:    SideOld,
			index:   0,
			reason:  ReasonMissingIdentifier,
		},
		{
			name:       "duplicate in new",
			old:        Snapshot{{"id": 1}},
			current:    Snapshot{{"id": 1}, {"id": 2}, {"id": 1}},
			side:       SideNew,
			index:      2,
			identifier: "1",
			reason:     ReasonDuplicateIdentifier,
		},
		{
			name:       "duplicate across representations",
			old:        Snapshot{{"id": 7}, {"id": "7"}},
			current:    nil,
			side:       SideOld,
			index:      1,
			identifier: "7",
			reason:     ReasonDuplicateIdentifier,
		},
		{
			name:       "old reported before new",
			old:        Snapshot{{"id": 1}, {"id": 1}},
			current:    Snapshot{{"x": 1}},
			side:       SideOld,
			index:      1,
			identifier: "1",
			reason:     ReasonDuplicateIdentifier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := Reconcile(tt.old, tt.current, []string{"name"}, "id", observed)
			require.Error(t, err)
			assert.Nil(t, changes)
			assert.True(t, errors.Is(err, ErrMalformedRecord))

			var mre *MalformedRecordError
			require.True(t, errors.As(err, &mre))
			assert.Equal(t, tt.side, mre.Side)
			assert.Equal(t, tt.index, mre.Index)
			assert.Equal(t, tt.identifier, mre.Identifier)
			assert.Equal(t, tt.reason, mre.Reason)
		})
	}
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	old := Snapshot{{"id": 2, "f": "a"}, {"id": 1, "f": "b"}}
	current := Snapshot{{"id": 1, "f": "c"}}

	_, err := Reconcile(old, current, []string{"f"}, "id", observed)
	require.NoError(t, err)

	assert.Equal(t, Snapshot{{"id": 2, "f": "a"}, {"id": 1, "f": "b"}}, old)
	assert.Equal(t, Snapshot{{"id": 1, "f": "c"}}, current)
}

// TestReconcile_Properties checks disjointness, completeness and determinism.
func TestReconcile_Properties(t *testing.T) {
	old := Snapshot{
		{"id": 1, "a": "x", "b": 1},
		{"id": 2, "a": "y", "b": 2},
		{"id": 4, "a": "z", "b": nil},
		{"id": "k9", "a": "q"},
	}
	current := Snapshot{
		{"id": 2, "a": "y", "b": 3},
		{"id": 3, "a": "w", "b": 1},
		{"id": 4, "a": "Z", "b": nil},
		{"id": "k9", "a": "q"},
	}
	fields := []string{"a", "b"}

	first, err := Reconcile(old, current, fields, "id", observed)
	require.NoError(t, err)
	second, err := Reconcile(old, current, fields, "id", observed)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	additions := map[string]bool{}
	deletions := map[string]bool{}
	updated := map[string]bool{}
	for _, c := range first {
		switch c.ChangeType {
		case ChangeAddition:
			additions[c.Identifier] = true
		case ChangeDeletion:
			deletions[c.Identifier] = true
		case ChangeFieldUpdate:
			updated[c.Identifier] = true
			assert.False(t, ValuesEqual(c.OldValue, c.NewValue))
		}
	}

	for id := range additions {
		assert.False(t, deletions[id])
		assert.False(t, updated[id])
	}
	for id := range deletions {
		assert.False(t, updated[id])
	}

	assert.Equal(t, map[string]bool{"3": true}, additions)
	assert.Equal(t, map[string]bool{"1": true}, deletions)
	assert.Equal(t, map[string]bool{"2": true, "4": true}, updated)

	// re-running against the new snapshot as the stored one yields nothing
	again, err := Reconcile(current, current, fields, "id", observed)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestNewIndex_SortsKeys(t *testing.T) {
	idx, err := NewIndex(SideNew, Snapshot{{"id": "b"}, {"id": 10}, {"id": "a"}, {"id": 9}}, "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"9", "10", "a", "b"}, idx.Keys)
	assert.Equal(t, 10, idx.Values["10"])
	assert.True(t, idx.Has("a"))
	assert.False(t, idx.Has("c"))
	assert.Equal(t, 4, idx.Len())
}
