// Package main provides the entry point for the compass CLI.
package main

import (
	"os"

	"github.com/tagconcierge/compass/cmd/compass/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
