// Package config loads, normalizes, and validates loom's TOML configuration.
package config
