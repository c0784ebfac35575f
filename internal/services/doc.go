// Package services defines shared utilities consumed by the workflow stage
// handlers, the HTTP API, and the audio decoder.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, worker slots, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper, and ClassifyFailure which
//     turns a stage failure into the kind recorded on the job and in metrics.
package services
