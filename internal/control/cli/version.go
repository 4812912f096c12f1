package cli

import (
	"fmt"
	"io"
	"os"
)

// For proper builds, these variables should be set via ldflags.
var version = "development"
var hash = "unknown"

// VersionCommand is the `version` command.
type VersionCommand struct {
}

// Execute executes the version command.
// (This gets called by `go-flags` when `version` is provided on the command
// line)
func (command *VersionCommand) Execute(args []string) error {
	return command.Run(os.Stdout)
}

// Run prints the version.
func (command *VersionCommand) Run(out io.Writer) error {
	_, err := fmt.Fprintf(out, "%s (%s)\n", version, hash)
	return err
}
