// Package main is the entry point for the zenwallet CLI.
package main

import (
	"os"

	"zenwallet/cmd/app/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
