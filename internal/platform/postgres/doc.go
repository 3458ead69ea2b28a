// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in the internal/store package.
//
// Every store accepts a store.DBTX, so the same implementation runs over a
// plain *sql.DB or over an open transaction; WithTx rebinds a store to a
// transaction without reconstructing its dependencies. Database errors are
// translated to store sentinel errors at this boundary so callers never see
// driver-level error types.
package postgres
