// Package tracking diffs two exports of the species tracking list.
//
// Species are keyed by ELSUBID and compared on ELCODE, SNAME, SCOMNAME,
// GRANK, SRANK, EO_Track, USESA, SPROT, PBSSTATUS, SGCN, SENSITV_SP and
// ER_RULE by default. Each side is a database table or an uploaded CSV/XLSX
// file. The changes are stamped with the export date, may be appended to
// the change log, and can be written as an xlsx report.
package tracking
