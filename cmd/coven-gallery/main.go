// ABOUTME: Entry point for coven-gallery, a local-first image gallery
// ABOUTME: Stores images with notes, tags and categories in an embedded SQLite database

package main

import (
	"os"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const banner = `
   ▄████▄   ▒█████   ██▒   █▓▓█████  ███▄    █
  ▒██▀ ▀█  ▒██▒  ██▒▓██░   █▒▓█   ▀  ██ ▀█   █
  ▒▓█    ▄ ▒██░  ██▒ ▓██  █▒░▒███   ▓██  ▀█ ██▒
  ▒▓▓▄ ▄██▒▒██   ██░  ▒██ █░░▒▓█  ▄ ▓██▒  ▐▌██▒
  ▒ ▓███▀ ░░ ████▓▒░   ▒▀█░  ░▒████▒▒██░   ▓██░
                  g a l l e r y
`

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
