package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file",
	Long: `Write a commented starter configuration to the given path
(default: ./config.yaml). Existing files are not overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// starterConfig mirrors the config package layout with only the fields a new
// deployment usually touches.
type starterConfig struct {
	Server struct {
		Port          int    `yaml:"port"`
		PublicBaseURL string `yaml:"public_base_url"`
	} `yaml:"server"`
	Database struct {
		Type        string `yaml:"type"`
		DSN         string `yaml:"dsn"`
		AutoMigrate bool   `yaml:"auto_migrate"`
	} `yaml:"database"`
	Storage struct {
		Type string `yaml:"type"`
		S3   struct {
			Region string `yaml:"region"`
			Bucket string `yaml:"bucket"`
		} `yaml:"s3"`
	} `yaml:"storage"`
	Auth struct {
		Keys struct {
			File string `yaml:"file"`
		} `yaml:"keys"`
	} `yaml:"auth"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "config.yaml"
	if len(args) > 0 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing file: %s", path)
	}

	var cfg starterConfig
	cfg.Server.Port = 8080
	cfg.Server.PublicBaseURL = "http://localhost:8080"
	cfg.Database.Type = "sqlite"
	cfg.Database.DSN = "docvault.db"
	cfg.Database.AutoMigrate = true
	cfg.Storage.Type = "memory"
	cfg.Storage.S3.Region = "us-east-1"
	cfg.Storage.S3.Bucket = "docvault-blobs"
	cfg.Auth.Keys.File = "keys.json"
	cfg.Log.Level = "info"

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	slog.Info("wrote starter config", "path", path)
	return nil
}
