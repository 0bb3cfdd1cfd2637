package main

import (
	"os"

	"github.com/oss-triage/gh-triage/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
