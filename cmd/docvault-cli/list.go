package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmorandi/docvault/client"
)

var (
	listLimit  int
	listAll    bool
	listCursor string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your documents",
	Long: `List your documents, most recent first.

Examples:
  docvault-cli list
  docvault-cli list --limit 10
  docvault-cli list --all
  docvault-cli list --cursor "MjAyNi0wOC0..."`,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 100, "max results per page (max: 1000)")
	listCmd.Flags().BoolVar(&listAll, "all", false, "fetch all pages")
	listCmd.Flags().StringVar(&listCursor, "cursor", "", "pagination cursor")
}

func runList(_ *cobra.Command, _ []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	result, err := c.List(context.Background(), client.ListOptions{
		Limit:  listLimit,
		Cursor: listCursor,
		All:    listAll,
	})
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	return getFormatter().FormatList(os.Stdout, result)
}
