// Package postgres contains PostgreSQL implementations of the store
// interfaces. Each store accepts a DBTX so the same implementation works
// against a database connection or an open transaction.
package postgres
