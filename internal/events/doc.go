// Package events provides the batch outcome reporting channel.
//
// The pipeline emits a BatchReport whenever a batch job reaches a terminal
// state. Sinks register with a ReportEmitter and receive every report,
// which keeps notification delivery decoupled from polling and consumption.
//
// The primary components are:
// - BatchReport: the terminal outcome of a single batch job
// - ReportHandler: interface for components that consume reports
// - ReportEmitter: interface for components that publish reports
package events
