// Package config loads relmap settings.
//
// Settings are resolved in four layers, each overriding the previous one:
// built-in defaults, a config file (YAML, or CUE checked against the
// embedded #Config schema), RELMAP_* environment variables, and command
// line flags applied by the caller.
package config
