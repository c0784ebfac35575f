// Command salient is the command-line entry point for the salient audio
// segmentation service. It runs the daemon in the foreground, analyzes files
// offline, and talks to a running daemon over its HTTP API.
package main
