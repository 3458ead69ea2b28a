// Package store defines the persistence interfaces for the content
// platform: modules and their items, access grants, library entries,
// progress records, and users. Implementations live under
// internal/platform; services depend only on these interfaces so tests can
// substitute in-memory stores.
//
// Every multi-row operation (module create, item reconciliation, fork) runs
// inside one database transaction via RunInTransaction; stores expose
// WithTx so a single transaction can span several stores.
package store
