// Package config handles configuration loading for coven-gallery.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion. Every field has a default, so a missing file is not an error
// when loading through LoadOrDefault.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from COVEN_GALLERY_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/coven/gallery.yaml
//  3. ~/.config/coven/gallery.yaml
//
// A path ending in .toml is parsed as TOML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  path: "${HOME}/pictures/gallery.db"
//
// # Configuration Sections
//
//	database:
//	  path: "~/.local/share/coven/gallery.db"
//	  driver: "sqlite"                # sqlite (pure Go) or sqlite3 (cgo)
//
//	legacy:
//	  dir: "~/.local/share/coven"     # holds <key>.json
//	  key: "imageDataApp"
//
//	backup:
//	  dir: "~/.local/share/coven/backups"
//
//	server:
//	  http_addr: "127.0.0.1:8765"
//	  shutdown_timeout: "5s"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
