// Package cmd provides the command-line interface for knygynas with configuration
// management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. KNYGYNAS_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (KNYGYNAS_SERVER_PORT, etc.)
//	4. Configuration files (.knygynas.yml) - lowest priority
//
// Environment Variables:
//
//	KNYGYNAS_CONFIG_FILE: Path to custom configuration file
//	KNYGYNAS_SERVER_PORT: Override server port
//	KNYGYNAS_SERVER_DOMAIN: Override the redirect domain
//	KNYGYNAS_STORAGE_BACKEND: file, memory or sqlite
//	And many more following the KNYGYNAS_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/knygynas/internal/config"
	"github.com/conneroisu/knygynas/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "knygynas",
	Short: "A small book catalog web application",
	Long: `Knygynas is a small book catalog served over HTTP. Visitors can list,
create, view, edit and delete books. Every page is assembled from HTML
fragments and the catalog is kept in JSON files, an in-memory store or SQLite.

Quick Start:
  knygynas serve                  Start the web server
  knygynas serve --hot-reload     Reload the page when fragments change
  knygynas books list             Print the stored catalog
  knygynas config show            Show the resolved configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .knygynas.yml, can also use KNYGYNAS_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	AddFlagValidation(rootCmd.PersistentFlags(), "log-level", ValidateLogLevel)
}

// initConfig initializes the configuration system with support for multiple config sources.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. KNYGYNAS_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .knygynas.yml in current directory
//
// Environment variables with the KNYGYNAS_ prefix override file values
// (e.g., KNYGYNAS_SERVER_PORT=8080).
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("KNYGYNAS_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".knygynas")
	}

	viper.SetEnvPrefix("KNYGYNAS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or unreadable file leaves the defaults in place.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the application logger from the log section.
func newLogger(cfg *config.Config) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.Log.Format
	return logging.NewLogger(lc), nil
}
