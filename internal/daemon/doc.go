// Package daemon coordinates the long-running salient process.
//
// It wires configuration, the job store, the workflow manager, and the HTTP
// API into a single lifecycle with flock-based locking to prevent multiple
// instances from sharing one data directory. Uploads are written to the data
// directory and queued here; everything after that belongs to the workflow
// package.
package daemon
