// Package postgres provides PostgreSQL implementations of the storage
// interfaces defined in the internal/store package, together with the
// embedded goose migrations that create their schema.
// Driver errors are translated to store errors by MapError.
package postgres
