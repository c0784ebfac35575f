// Package api defines wire-format types and converters for the HTTP API.
// It translates internal job models into transport-friendly DTOs that the
// CLI client and browser front ends decode without touching internal types.
//
// DTOs use camelCase JSON tags. Job statuses are lowercase strings and
// timestamps use RFC3339 with milliseconds. Analysis results are stored as
// JSON already, so result payloads pass through as json.RawMessage instead of
// being decoded and re-encoded.
package api
