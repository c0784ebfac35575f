// Package notifications sends ntfy push messages about analysis jobs.
//
// NewService returns a noop implementation when no topic is configured, so
// callers can publish unconditionally.
package notifications
