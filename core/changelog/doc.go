// Package changelog persists change records produced by a reconcile run.
//
// Store writes them to the change_log table through GORM, one transaction
// per append and numbered in emission order, and implements reconcile.Sink
// through Store.Sink. Archive uploads a whole run report as JSON to object
// storage for reviewers.
package changelog
