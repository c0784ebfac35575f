// Package preflight provides readiness checks for the filesystem paths and
// external services salient depends on.
//
// The workflow manager calls RunAll before starting workers and refuses to
// start when a check fails. The CLI "salient check" command prints the same
// results alongside the dependency report from CheckSystemDeps.
package preflight
