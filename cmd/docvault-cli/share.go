package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var shareCmd = &cobra.Command{
	Use:   "share <document-id>",
	Short: "Make a document public and print its share link",
	Long: `Make a document public.

The first share mints a permanent token; later share/unshare cycles reuse
it, so a link handed out before an unshare works again after re-sharing.
Sharing an already public document just reprints the link.`,
	Args: cobra.ExactArgs(1),
	RunE: runShare,
}

var unshareCmd = &cobra.Command{
	Use:   "unshare <document-id>",
	Short: "Make a document private",
	Long: `Make a document private.

The share link stops resolving but the token is retained; a later share
reactivates the same link.`,
	Args: cobra.ExactArgs(1),
	RunE: runUnshare,
}

func runShare(_ *cobra.Command, args []string) error {
	return setVisibility(args[0], true)
}

func runUnshare(_ *cobra.Command, args []string) error {
	return setVisibility(args[0], false)
}

func setVisibility(arg string, public bool) error {
	id, err := uuid.Parse(arg)
	if err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	ctx := context.Background()

	if public {
		shareInfo, shareErr := c.Share(ctx, id)
		if shareErr != nil {
			_ = getFormatter().FormatError(os.Stderr, shareErr)
			return shareErr
		}
		return getFormatter().FormatShare(os.Stdout, shareInfo)
	}

	shareInfo, shareErr := c.Unshare(ctx, id)
	if shareErr != nil {
		_ = getFormatter().FormatError(os.Stderr, shareErr)
		return shareErr
	}
	return getFormatter().FormatShare(os.Stdout, shareInfo)
}
