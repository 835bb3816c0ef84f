// Package config loads runtime configuration for the Safe Locker client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. JSON, YAML and TOML
//     are accepted; the extension picks the decoder.
//  3. Environment: variables from a .env file in the working directory, then
//     SAFELOCKER_<KEY> variables, e.g. SAFELOCKER_BACKEND=memory.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   address:port of the Locker gRPC endpoint
//	-b string   backend: grpc or memory
//	-l string   log format: slog, text or zap
//	-demo       seed the memory backend with the demo account
//	-debug      enable debug logging
//
// # File schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "backend": "grpc",
//	  "log_format": "slog",
//	  "request_timeout": "30s"
//	}
package config
