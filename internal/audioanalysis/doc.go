// Package audioanalysis is the workflow stage that turns an uploaded file
// into stored salient segments.
//
// Execute decodes the upload to a mono waveform, runs salience.Analyze,
// persists each progress report through the job store, checks the result for
// structural consistency, and writes it together with the done transition.
// Any failure leaves the job for the workflow manager to mark as errored; no
// partial result is ever stored.
package audioanalysis
