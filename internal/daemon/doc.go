// Package daemon runs the background pipeline process: it enforces
// single-instance execution with a lock file, owns the workflow manager's
// lifecycle, and aggregates runtime status for IPC consumers.
package daemon
