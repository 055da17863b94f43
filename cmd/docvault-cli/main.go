package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cmorandi/docvault/client"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	endpoint    string
	accessKey   string
	secretKey   string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "docvault-cli",
	Version: version,
	Short:   "Client for the docvault document service",
	Long: `Docvault CLI - client for the docvault document service.

Uploads and downloads never pass through the docvault server: the CLI
requests a short-lived handle and transfers bytes directly against the
blob store. Documents are private by default; use share to mint a public
link and unshare to disable it.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.docvault/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (env: DOCVAULT_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:8080, env: DOCVAULT_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&accessKey, "access-key", "a", "", "access key (env: DOCVAULT_ACCESS_KEY)")
	rootCmd.PersistentFlags().StringVarP(&secretKey, "secret-key", "k", "", "secret key (env: DOCVAULT_SECRET_KEY)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(unshareCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getConfigPath resolves the config file path from flag, env, or default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if envPath := client.ConfigPathFromEnv(); envPath != "" {
		return envPath
	}
	return client.DefaultConfigPath()
}

// buildConfig merges config from profile, env vars, and flags (flags take precedence).
func buildConfig() (*client.Config, error) {
	var configs []*client.Config

	configPath := getConfigPath()
	if configPath != "" {
		if fileCfg, err := client.LoadConfigFile(configPath); err == nil {
			name := profileName
			if name == "" {
				name = client.ProfileFromEnv()
			}
			if p, profileErr := fileCfg.GetProfile(name); profileErr == nil {
				configs = append(configs, client.ConfigFromProfile(p))
			} else if name != "" {
				// A named profile that doesn't exist is an error; a missing
				// default just falls through to env and flags.
				return nil, profileErr
			}
		} else if cfgFile != "" {
			return nil, err
		}
	}

	configs = append(configs, client.ConfigFromEnv())

	configs = append(configs, &client.Config{
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
	})

	return client.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() client.Formatter {
	return client.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*client.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	if err := cfg.ValidateWithAuth(); err != nil {
		return nil, err
	}

	return client.New(cfg)
}
