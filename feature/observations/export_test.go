package observations

import (
	"testing"

	"commscivet/core/reconcile"

	"github.com/stretchr/testify/assert"
)

func TestPrepareExport(t *testing.T) {
	in := reconcile.Snapshot{
		{"id": "1", "latitude": "41.5", "longitude": "-77.1", "private_latitude": nil, "private_longitude": nil},
		{"id": "2", "latitude": "40.1", "longitude": "-76", "private_latitude": "40.15", "private_longitude": "-76.05"},
		{"id": "3", "latitude": nil, "private_latitude": "  "},
	}

	out := PrepareExport(in)

	assert.Equal(t, "41.5", out[0][ColumnFeatureLatitude])
	assert.Equal(t, "-77.1", out[0][ColumnFeatureLongitude])
	assert.Equal(t, "40.15", out[1][ColumnFeatureLatitude])
	assert.Equal(t, "-76.05", out[1][ColumnFeatureLongitude])
	assert.Nil(t, out[2][ColumnFeatureLatitude])
	assert.Nil(t, out[2][ColumnFeatureLongitude])

	// input records are untouched
	assert.NotContains(t, in[0], ColumnFeatureLatitude)
	assert.Equal(t, "1", out[0]["id"])
}

func TestExport_Describe(t *testing.T) {
	assert.Equal(t, "upload:a.csv", Export{Name: "a.csv", Data: []byte("id\n")}.Describe())
	assert.Equal(t, "file:/tmp/a.csv", Export{Path: "/tmp/a.csv"}.Describe())
	assert.Equal(t, "object:exports/a.csv", Export{Object: "exports/a.csv"}.Describe())
	assert.Equal(t, "latest", Export{}.Describe())
}

func TestConfig_RequiredColumns(t *testing.T) {
	cfg := Config{IdentifierField: "id", TrackedFields: []string{"quality_grade", "id", "place_guess"}}
	assert.Equal(t, []string{"id", "quality_grade", "place_guess"}, cfg.RequiredColumns())
	assert.Zero(t, cfg.CacheTTL())

	cfg.CacheTTLSeconds = 60
	assert.Equal(t, "1m0s", cfg.CacheTTL().String())
}
