// Package postgres provides PostgreSQL-specific implementations for the
// storage interfaces defined in the internal/store package: the batch job
// record, the aggregate weekly summary documents, and the read-only weekly
// task data view. It also owns the embedded schema migrations.
package postgres
