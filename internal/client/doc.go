// Package client talks to a running salient daemon over its HTTP API. The
// CLI uses it for every command that does not analyze audio in-process.
package client
