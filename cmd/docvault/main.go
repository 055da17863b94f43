package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cmorandi/docvault/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "docvault",
	Short:   "Access-controlled document vault backed by object storage",
	Long: `Docvault is a document service that never proxies file bytes. Clients
upload and download through short-lived presigned URLs while docvault
enforces ownership, visibility, and share links on the metadata.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var configFiles []string
		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			configFiles = append(configFiles, configFile)
		}

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (env: DOCVAULT_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (env: DOCVAULT_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-type", "", "blob gateway backend: s3, memory (env: DOCVAULT_STORAGE_TYPE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
