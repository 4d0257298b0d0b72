// Package main provides the qris CLI: project creation, migration,
// attachments, climate downloads, and riverscapes export.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/riverscapes/qris/pkg/types"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error classes to shell exit codes: user mistakes exit 1,
// environment and system failures exit 2.
func exitCode(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidProjectStore),
		errors.Is(err, types.ErrDuplicateLabel),
		errors.Is(err, types.ErrDuplicatePath),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrUnknownUnit),
		errors.Is(err, types.ErrMissingCredential):
		return 1
	default:
		return 2
	}
}
