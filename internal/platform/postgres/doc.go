// Package postgres provides PostgreSQL implementations of the store
// interfaces. All stores accept a store.DBTX so they run the same against
// a connection pool or inside a transaction, and map driver errors to the
// store package's sentinel errors.
package postgres
