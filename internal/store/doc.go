// Package store defines the persistence contracts for memory records,
// profiles, study plans, activity history, achievements and the vocabulary
// pool, together with the errors every implementation returns. PostgreSQL
// and in-memory implementations live under internal/platform.
package store
