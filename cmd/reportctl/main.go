package main

import (
	"os"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/interfaces/cli"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}
