// Package config provides configuration loading for the Northstar report
// tools.
//
// Configuration is read from NORTHSTAR_-prefixed environment variables
// merged over an optional northstar.yaml file, with environment values
// taking precedence. The legacy WCL_CLIENT_ID / WCL_CLIENT_SECRET
// variables are honored as a fallback for API credentials.
//
// Paths resolves and creates the data, reports, config and logs
// directories; every file the tools read or write is located through it.
package config
