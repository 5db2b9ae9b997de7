// Command kbengine is the manufacturer knowledge base CLI.
package main

import (
	"os"

	"github.com/veridian-labs/kbengine/internal/adapters/driving/cli"
)

// version is overridden at build time:
//
//	go build -ldflags "-X main.version=v1.2.3" ./cmd/kbengine
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
