// Package config loads the Reactor application configuration.
//
// Configuration is read from a single file whose format is chosen by its
// extension (.toml, .yaml or .yml). A missing file is not an error: the
// built-in defaults apply. Environment variables prefixed with REACTOR_
// override file values, for example:
//
//	REACTOR_LOG_LEVEL=debug
//	REACTOR_SCRIPT_PATH=./scripts/main.lua
//	REACTOR_BRIDGE_CONNECT_POLICY=first-publish
//	REACTOR_NAVIGATION_START=app://main/Dashboard,app://sidebar/Recent
//
// A minimal TOML file:
//
//	[log]
//	level = "debug"
//
//	[script]
//	path = "scripts/main.lua"
//	timeout = "2s"
//	watch = true
//
//	[[ui.regions]]
//	name = "main"
//	kind = "content"
//
//	[[ui.regions]]
//	name = "sidebar"
//	kind = "list"
//
// Load returns a validated *Config; Validate reports every problem at once,
// joined with errors.Join.
package config
