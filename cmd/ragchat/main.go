// Command ragchat indexes a directory of documents and answers questions
// about them with retrieval-augmented generation.
package main

import (
	"os"
	"runtime/debug"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/cli"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = ""

func main() {
	// A .env file is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cli.SetVersion(resolveVersion())
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
