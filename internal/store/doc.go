// Package store defines interfaces for data persistence operations.
// These interfaces keep the pipeline's orchestration logic independent of
// the underlying database: the batch job record, the aggregate summary
// documents and the weekly read model each get a narrow contract that the
// postgres platform package implements.
package store
