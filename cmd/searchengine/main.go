// Package main provides the entry point for the searchengine CLI.
package main

import (
	"os"

	"github.com/Vojkan-Cvijovic/searchengine/cmd/searchengine/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
