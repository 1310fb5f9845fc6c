// ABOUTME: Entry point for the Resonate mixer
// ABOUTME: Hands the command line to the cobra command tree
package main

import (
	"os"

	"github.com/Resonate-Protocol/resonate-mixer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
