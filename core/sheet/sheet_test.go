package sheet

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"commscivet/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := "\xEF\xBB\xBF\n" +
		" id ,name,,name\n" +
		"1,Oak,x,dup\n" +
		",,,\n" +
		"2,Elm\n" +
		"3, Pine ,a,b,extra\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "column_3", "name_2"}, table.Headers)
	assert.Equal(t, [][]string{
		{"1", "Oak", "x", "dup"},
		{"2", "Elm", "", ""},
		{"3", " Pine ", "a", "b"},
	}, table.Rows)
}

func TestReadCSV_NoHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("\n,,\n"))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestRead_UnsupportedFormat(t *testing.T) {
	_, err := Read("export.json", strings.NewReader("{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTable_Records(t *testing.T) {
	table := &Table{
		Headers: []string{"id", "name", "note"},
		Rows: [][]string{
			{"1", "Oak", ""},
			{"2", "", " "},
		},
	}

	assert.Equal(t, reconcile.Snapshot{
		{"id": "1", "name": "Oak", "note": nil},
		{"id": "2", "name": nil, "note": " "},
	}, table.Records())

	assert.True(t, table.HasColumn("note"))
	assert.False(t, table.HasColumn("Note"))
}

func TestXLSX_WriteThenRead(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXLSX(&buf, "export", []string{"ELSUBID", "SNAME"}, [][]string{
		{"100", "Acer rubrum"},
		{"101", "Quercus alba"},
	})
	require.NoError(t, err)

	table, err := Read("tracking.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"ELSUBID", "SNAME"}, table.Headers)
	assert.Equal(t, [][]string{{"100", "Acer rubrum"}, {"101", "Quercus alba"}}, table.Rows)
}

func TestWriteChanges(t *testing.T) {
	at := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)
	changes := []reconcile.ChangeRecord{
		{Identifier: "1", ChangeType: reconcile.ChangeDeletion, OldValue: 1, ObservedAt: at},
		{Identifier: "5", ChangeType: reconcile.ChangeFieldUpdate, FieldName: "status", OldValue: "pending", NewValue: "approved", ObservedAt: at},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteChanges(&buf, changes))

	table, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, ChangeHeaders, table.Headers)
	assert.Equal(t, [][]string{
		{"1", "deletion", "", "1", "", "2024-05-17"},
		{"5", "field_update", "status", "pending", "approved", "2024-05-17"},
	}, table.Rows)
}
