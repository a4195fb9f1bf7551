// Package gemini provides an implementation of the batch.Provider interface
// that uses the Gemini batch API to generate weekly activity summaries.
//
// This package is an infrastructure adapter: it translates between the
// application's batch contract and the vendor API without exposing vendor
// details to the orchestration core.
//
// Key components:
//
// 1. BatchProvider:
//   - Implements batch.Provider
//   - Uploads request sets as JSONL input files
//   - Creates and polls batch jobs
//   - Downloads and parses JSONL result files into tagged per-item results
//
// 2. State mapping:
//   - Translates the vendor's job states onto the provider-neutral
//     validating/in_progress/completed/failed/cancelled set
//
// 3. Rate limiting:
//   - Caps status and download calls client-side so busy poll cycles stay
//     inside the vendor's request limits
package gemini
