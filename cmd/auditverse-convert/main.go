// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the auditverse-convert CLI.
// Running it with no arguments converts the AuditVerse sample data file to
// the timeline format in place.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/auditverse-convert/internal/logging"
	"github.com/pdiddy/auditverse-convert/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built from configuration before any subcommand runs.
var logger = zap.NewNop()

// rootCmd is the base command for the auditverse-convert CLI.
var rootCmd = &cobra.Command{
	Use:   "auditverse-convert",
	Short: "Convert AuditVerse sample data to the timeline format",
	Long: `auditverse-convert rewrites public/data/comprehensiveSampleData.json from
the old flat format to the timeline format: the current state, a synthesized
history of events, quarterly snapshots, and versioned metadata. The original
file is kept as comprehensiveSampleData.json.backup.

Run without a subcommand to convert. The validate, replay, and timeline
subcommands inspect converted documents.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	RunE:              runConvert,
}

func setupLogging(cmd *cobra.Command, args []string) error {
	l, err := logging.New(appConfig().Log)
	if err != nil {
		return err
	}
	logger = l
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Info("using config file", zap.String("path", used))
	}
	return nil
}

// appConfig reads the configurable sections from viper.
func appConfig() types.AppConfig {
	return types.AppConfig{
		Log: types.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: types.LogFormat(viper.GetString("log.format")),
		},
		Timeline: types.TimelineStoreConfig{
			IndexDir:   viper.GetString("timeline.index_dir"),
			MaxResults: viper.GetInt("timeline.max_results"),
		},
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./auditverse-convert.yaml or ~/.config/auditverse-convert/auditverse-convert.yaml)")

	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", string(types.LogConsole))
	viper.SetDefault("timeline.index_dir", filepath.Join("timeline", "index"))
	viper.SetDefault("timeline.max_results", 50)
}

func initConfig() {
	if err := loadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("auditverse-convert")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "auditverse-convert"))
		}
	}

	viper.SetEnvPrefix("AUDITVERSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintln(os.Stderr, "warning: reading config:", err)
	}
}

// loadDotEnv exports the variables in ./.env, if present, so AUDITVERSE_*
// settings can live next to the data.
func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
