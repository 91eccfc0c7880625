// Command chapterdex indexes documentation chapters and serves keyword,
// semantic and hybrid search over them.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/chapterdex/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is normal; real environment variables still apply.
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.SetBootstrap(wire)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
