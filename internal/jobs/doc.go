// Package jobs persists analysis jobs and their results in SQLite.
//
// The Store owns the database connection, schema initialization, and every
// lifecycle transition a job goes through: insert on upload, atomic claim by a
// worker, progress and heartbeat updates, completion (result row plus the done
// transition in one transaction), failure, stale-job reclamation, and expiry.
//
// The database is transient storage for recent jobs rather than an archive.
// Schema changes bump schemaVersion in schema.go; users clear the database to
// adopt the new schema.
package jobs
