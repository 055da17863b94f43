package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <document-id> [document-id...]",
	Aliases: []string{"rm"},
	Short:   "Delete documents",
	Long: `Delete one or more documents you own.

The blob is removed first, then the descriptor. Deletion is permanent.

Examples:
  docvault-cli delete 4f6b2c1e-...
  docvault-cli delete 4f6b2c1e-... 9a1d3e7f-...`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(_ *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	ctx := context.Background()
	failed := false

	for _, arg := range args {
		id, parseErr := uuid.Parse(arg)
		if parseErr != nil {
			_ = getFormatter().FormatError(os.Stderr, fmt.Errorf("invalid document id %q: %w", arg, parseErr))
			failed = true
			continue
		}

		if deleteErr := c.Delete(ctx, id); deleteErr != nil {
			_ = getFormatter().FormatError(os.Stderr, deleteErr)
			failed = true
			continue
		}

		_ = getFormatter().FormatDelete(os.Stdout, id.String())
	}

	if failed {
		return &exitError{code: 1}
	}
	return nil
}

// exitError is returned when we want to exit with a specific code
// but don't want cobra to print an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}
