// Package sheet reads tabular exports (.csv and .xlsx) into record snapshots
// and writes change reports as .xlsx workbooks.
//
// The first non-empty row is the header row. Header names are trimmed but
// otherwise kept as-is so they match datastore column names. Data rows are
// padded to the header width and empty rows are dropped.
package sheet
