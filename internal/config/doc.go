// Package config loads, normalizes, and validates Salient configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads optional .env files, and honours
// SALIENT_* environment overrides. The Config type centralizes every knob the
// daemon and CLI need so the job store, HTTP API, and workers agree on
// directories and timings.
package config
