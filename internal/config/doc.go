// Package config handles configuration loading for the hearth hub.
//
// # Overview
//
// Configuration is loaded from a TOML file with environment variable
// expansion. The package provides validation and sensible defaults; a
// missing file is not an error.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from HEARTH_CONFIG environment variable
//  2. ./hearth.toml (current directory)
//  3. ~/.config/hearth/hearth.toml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables with ${VAR}
// syntax. After parsing, a few settings can be overridden directly:
// HEARTH_LISTEN_ADDR, HEARTH_LOG_LEVEL, HEARTH_LOG_FORMAT and
// HEARTH_BINDINGS_PATH.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	[signals]
//	dedupe_ttl = "5m"
//
// # Configuration Sections
//
// Server settings:
//
//	[server]
//	listen_addr = "127.0.0.1:8700"
//	shutdown_timeout = "10s"
//
// Logging:
//
//	[logging]
//	level = "info"   # debug, info, warn, error
//	format = "text"  # text, json
//
// Agents registered at startup:
//
//	[[agents]]
//	id = "mock-1"
//	type = "mock"
//	capabilities = ["chat"]
//	work_delay = "500ms"
//
// Plugins, bindings, signal dedupe and metrics:
//
//	[plugins]
//	enabled = ["builtin"]
//
//	[bindings]
//	path = "~/.config/hearth/bindings.yaml"
//
//	[signals]
//	dedupe_ttl = "5m"
//	dedupe_max = 4096
//
//	[metrics]
//	enabled = true
//	path = "/metrics"
package config
