package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSnapshots(n int) (Snapshot, Snapshot) {
	var old, current Snapshot
	for i := 0; i < n; i++ {
		if i%7 != 0 {
			old = append(old, Record{
				"id": i, "a": fmt.Sprintf("a%d", i), "b": i % 3, "c": nil, "d": "same",
			})
		}
		if i%5 != 0 {
			current = append(current, Record{
				"id": fmt.Sprint(i), "a": fmt.Sprintf("a%d", i%11), "b": i % 4, "c": nil, "d": "same",
			})
		}
	}
	return old, current
}

func TestReconcileConcurrent_MatchesSequential(t *testing.T) {
	old, current := buildSnapshots(500)
	fields := []string{"d", "a", "b", "c"}

	want, err := Reconcile(old, current, fields, "id", observed)
	require.NoError(t, err)
	require.NotEmpty(t, want)

	for _, jobs := range []int{0, 1, 2, 4, 16} {
		t.Run(fmt.Sprintf("jobs=%d", jobs), func(t *testing.T) {
			got, err := ReconcileConcurrent(context.Background(), old, current, fields, "id", observed, jobs)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestReconcileConcurrent_ReportsOldErrorFirst(t *testing.T) {
	old := Snapshot{{"id": 1}, {"id": 1}}
	current := Snapshot{{"id": nil}}

	_, err := ReconcileConcurrent(context.Background(), old, current, []string{"a"}, "id", observed, 4)
	var mre *MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, SideOld, mre.Side)
}

func TestDiffConcurrent_CancelledContext(t *testing.T) {
	old, current := buildSnapshots(50)
	oldIdx, err := NewIndex(SideOld, old, "id")
	require.NoError(t, err)
	newIdx, err := NewIndex(SideNew, current, "id")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = DiffConcurrent(ctx, oldIdx, newIdx, []string{"a", "b", "c"}, "id", observed, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
