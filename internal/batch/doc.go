// Package batch defines the contract an external batch-generation provider
// must satisfy: submit a set of keyed requests as one batch, report batch
// status on demand, and hand back per-item results once finished. It keeps
// the orchestration core independent of any specific AI vendor.
package batch
