package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/runnerr0/chronicle-banner/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Optional; CHRONICLE_* variables may also come from the environment.
	_ = godotenv.Load(".env")

	if err := cli.Run(version); err != nil {
		os.Exit(1)
	}
}
