// Package salience locates salient regions in a mono waveform.
//
// The pipeline runs strictly forward: per-frame features (RMS energy, zero
// crossing rate, spectral flatness) are fused into a single score, frames
// above an adaptive threshold form candidate spans, nearby spans are merged,
// and each surviving span is annotated with loudness statistics.
//
// Everything here is synchronous and free of shared state. Callers that need
// concurrency run one Analyze call per goroutine; persistence and progress
// plumbing live in the workflow and jobs packages.
package salience
