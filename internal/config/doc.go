// Package config loads, normalizes, and validates podscribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PODSCRIBE_LLM_API_KEY. The Config type centralizes every knob the daemon and
// CLI need, from stage timeouts to external tool commands and upload limits.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
