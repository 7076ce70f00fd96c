// Package observations keeps the community science vetting table in step
// with iNaturalist exports.
//
// # Flow
//
// An export (uploaded, a local file, a bucket object or the newest object
// under the export prefix) is read with core/sheet and prepared: the
// feature_latitude and feature_longitude columns take the private
// coordinate when the export has one and the public one otherwise.
//
// The feature table is the stored snapshot. Both are reconciled by
// core/reconcile on the configured identifier and tracked fields, which
// classifies every observation as new, updated, unchanged or missing.
//
// # Applying
//
// A confirmed, non-dry run applies the plan through Store:
//   - new observations are inserted with record_status "new"
//   - updated observations get their changed fields and record_status "updated"
//   - missing observations are deleted only when purge is requested
//
// Every written row carries import_date, the run date in the configured
// layout. Export columns the table does not have are dropped. The run's
// change records then go to the change log, and the report can be
// archived to object storage.
package observations
