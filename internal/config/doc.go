// Package config loads dbspctl's client settings and pipeline endpoint files.
//
// # Client Configuration
//
// Load reads ~/.config/dbspctl/config.toml unless another path is given. A
// missing file is not an error: every field has a default, and empty values
// in the file fall back to those defaults.
//
//	server = "127.0.0.1:8080"
//	request_timeout = "20s"
//	compile_timeout = "5m"
//	poll_interval = "2s"
//	log_level = "info"
//	log_format = "console"   # or "json"
//	log_dir = "~/.local/share/dbspctl/logs"
//	kafka_brokers = ["localhost:9092"]
//	workspace = "~/.local/share/dbspctl/workspace.toml"
//
// Durations use time.ParseDuration syntax. Paths starting with ~ are expanded
// to the home directory. The DBSPCTL_SERVER environment variable overrides
// server.
//
// # Pipeline Files
//
// LoadPipelineFile reads the TOML endpoints file passed to `dbspctl run`. Each
// entry under inputs and outputs maps onto a dbsp.EndpointConfig; transport
// and format configs are kept as opaque maps. PipelineFile.Apply copies the
// endpoints onto a dbsp.ProjectConfig.
//
// # Errors
//
// Failures are wrapped as "open config", "read config" or "parse config" (and
// the "pipeline file" equivalents) so callers can report them directly.
package config
