// Package workflow runs queued analysis jobs to completion.
//
// The Manager starts a fixed pool of workers. Each worker claims the oldest
// queued job, runs the analysis stage under a heartbeat, and records the
// outcome: the stage itself stores the result and marks the job done, while
// the manager persists failures with their classified kind. A maintenance
// loop reclaims jobs whose heartbeat went stale, purges finished jobs past the
// retention window together with their uploaded files, and refreshes the
// per-status job gauges.
//
// Queue-level notifications fire when a worker picks up work on an idle queue
// and again once no queued or processing jobs remain.
package workflow
