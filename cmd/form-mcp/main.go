package main

import (
	"github.com/ironsheep/form-tools-mcp/cmd/form-mcp/cmd"
)

// Version information - set by ldflags during build
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
