// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package, together with the
// embedded goose migrations that create their schema.
//
// The stores are opened through the pgx stdlib driver ("pgx") and map pgconn
// error codes to store sentinel errors via MapError.
package postgres
