// Package pipeline orchestrates the weekly summary batch lifecycle:
// submission of per-user generation requests, polling the provider for
// state changes, consumption of finished results into aggregate summary
// documents, and retention cleanup of old job records.
//
// The pipeline is deliberately batch-shaped rather than request-shaped.
// A provider batch can take hours to finish, so no component ever blocks
// waiting for generation: the submitter returns as soon as the provider
// accepts the batch, and the poller picks the job up on later cycles.
package pipeline
