// Package config loads the odlv configuration file.
//
// # Discovery
//
// Load resolves the file in this order:
//
//  1. An explicit path (the --config flag)
//  2. ~/.config/odlv/config.toml
//
// A missing file is not an error; every field has a default. Empty or
// whitespace-only values also fall back to defaults.
//
// # Fields
//
//	base_url      = "https://video.example.edu"  # default http://127.0.0.1:8089
//	session_id    = "..."                        # sessionid cookie
//	csrf_token    = "..."                        # sent as X-CSRFToken on writes
//	log_level     = "info"
//	log_file      = "~/.local/state/odlv/odlv.log"
//	dev           = false                        # enables the action logger
//	metrics_addr  = "127.0.0.1:9464"             # empty disables the debug server
//
//	[user]
//	email        = "staff@example.edu"
//	is_app_admin = false
//	editable     = true
//
//	[features]
//	analytics = true
//
// Paths starting with ~ are expanded against the user's home directory.
//
// Config.Settings converts the [user] and [features] tables into the
// state.Settings value handed to the store.
package config
