// Package main provides the entry point for the skillsmcp CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/skillsmcp/cmd/skillsmcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
