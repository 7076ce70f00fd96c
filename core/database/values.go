package database

import (
	"database/sql/driver"
	"math"
	"strconv"
	"strings"
	"time"

	"commscivet/core/reconcile"
	"commscivet/core/utils"
)

// ValueKind says how values of a column are rendered as text.
type ValueKind int

const (
	KindText ValueKind = iota
	KindNumber
	KindDate
	KindDateTime
)

var numberTypes = []string{
	"int", "integer", "bigint", "smallint", "tinyint", "mediumint",
	"decimal", "numeric", "real", "double", "float",
}

// KindOf classifies a column type as reported by GetTableColumns, e.g.
// "decimal(10,6)", "double precision" or "timestamp without time zone".
func KindOf(columnType string) ValueKind {
	t := strings.ToLower(strings.TrimSpace(columnType))
	if i := strings.IndexAny(t, "( "); i >= 0 {
		t = t[:i]
	}
	switch t {
	case "date":
		return KindDate
	case "datetime", "timestamp", "timestamptz":
		return KindDateTime
	}
	for _, n := range numberTypes {
		if t == n {
			return KindNumber
		}
	}
	return KindText
}

// ColumnKinds maps lowercased column names to their value kind.
func ColumnKinds(columns []ColumnInfo) map[string]ValueKind {
	kinds := make(map[string]ValueKind, len(columns))
	for _, c := range columns {
		kinds[strings.ToLower(c.Field)] = KindOf(c.Type)
	}
	return kinds
}

// dateTimeLayouts are tried in order when a date column value arrives as text.
var dateTimeLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700 MST",
}

// RenderValue returns the text form of v for a column of the given kind:
// numbers in shortest decimal form ("40.10" and 40.1 both become "40.1"),
// dates as 2006-01-02 and date-times as 2006-01-02 15:04:05. Values that do
// not parse for their kind are returned unchanged so they still compare
// as different.
func RenderValue(kind ValueKind, v any) any {
	if valuer, ok := v.(driver.Valuer); ok {
		if dv, err := valuer.Value(); err == nil {
			v = dv
		}
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if utils.IsNil(v) {
		return nil
	}

	switch kind {
	case KindNumber:
		if f, ok := asFloat(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	case KindDate:
		if t, ok := asTime(v); ok {
			return t.Format(time.DateOnly)
		}
	case KindDateTime:
		if t, ok := asTime(v); ok {
			return t.Format(time.DateTime)
		}
	}
	return v
}

// RenderRecord returns a copy of rec with the listed fields rendered for
// their column kind. Fields without a known column are copied as is.
func RenderRecord(rec reconcile.Record, kinds map[string]ValueKind, fields []string) reconcile.Record {
	out := make(reconcile.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	for _, f := range fields {
		v, ok := rec[f]
		if !ok {
			continue
		}
		if kind, known := kinds[strings.ToLower(f)]; known {
			out[f] = RenderValue(kind, v)
		}
	}
	return out
}

func asFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case bool, time.Time:
		return 0, false
	default:
		s := strings.TrimSpace(utils.ToString(v))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
		return time.Time{}, false
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateTimeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}
