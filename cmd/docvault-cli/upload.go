package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmorandi/docvault/client"
)

var (
	uploadTitle       string
	uploadDescription string
	uploadContentType string
	uploadFileName    string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path>",
	Short: "Upload a document",
	Long: `Upload a local file as a new document.

The upload is two-phase: the server issues a short-lived write handle and
the bytes go directly to the blob store. The document starts private.

Examples:
  docvault-cli upload ./report.pdf
  docvault-cli upload --title "Q3 Report" ./report.pdf
  docvault-cli upload --content-type application/json ./data`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadTitle, "title", "", "document title (default: file name)")
	uploadCmd.Flags().StringVar(&uploadDescription, "description", "", "document description")
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "override content-type")
	uploadCmd.Flags().StringVar(&uploadFileName, "name", "", "override the recorded file name")
}

func runUpload(_ *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	opts := client.UploadOptions{
		LocalPath:   args[0],
		FileName:    uploadFileName,
		Title:       uploadTitle,
		Description: uploadDescription,
		ContentType: uploadContentType,
	}

	result, err := c.Upload(context.Background(), opts)
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	return getFormatter().FormatUpload(os.Stdout, result)
}
