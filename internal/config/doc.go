// Package config loads, normalizes, and validates the TOML configuration
// used by the happytube pipeline. Named search profiles and prompt templates
// are looked up through accessors so a bad name surfaces as a configuration
// error instead of a zero value.
package config
