// ABOUTME: Log output setup for the commands
// ABOUTME: Sends logs to a file, plus the console when the TUI is off
package cli

import (
	"fmt"
	"io"
	"log"
	"os"
)

// setupLogging sends the standard logger to path, and also to console
// unless a TUI owns the terminal.
func setupLogging(path string, useTUI bool, console io.Writer) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(console, f))
	}
	return f, nil
}
