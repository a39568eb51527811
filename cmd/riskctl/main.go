// Package main provides riskctl, a command-line client for the FlightRisk pipeline.
package main

import (
	"os"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
