// Package cli wires the mailproof commands: check, batch, rules and
// config. Configuration layers resolve as flags > MAILPROOF_* env >
// config file > defaults.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mailproof/mailproof/internal/logging"
	"github.com/mailproof/mailproof/internal/model"
)

const version = "0.1.0"

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "mailproof",
	Short: "Pre-send QA for marketing emails",
	Long: `Mailproof checks a rendered marketing email against its copy
document before the campaign ships.

It compares subject lines, preview text and CTAs with what the
copywriter approved, probes every link for liveness and tracking
parameters, applies per-client rules, runs CAN-SPAM and accessibility
checks, and produces a transparent 0-100 score with the data behind
every point.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mailproof v%s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.mailproof/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	// A .env in the working directory is the usual place for API keys
	// during local runs.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(homeDir())
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("MAILPROOF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// buildConfig assembles the effective configuration.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	if cfg.Rules.Dir == "" {
		cfg.Rules.Dir = filepath.Join(homeDir(), "rules")
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = filepath.Join(homeDir(), "cache")
	}
	return cfg, nil
}

func newLogger(cfg *model.Config) *zap.Logger {
	level := cfg.Logging.Level
	if cfg.Output.Verbose && level != "debug" {
		level = "debug"
	}
	return logging.New(level, cfg.Logging.Format)
}

// homeDir is the mailproof state directory, ~/.mailproof.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mailproof"
	}
	return filepath.Join(home, ".mailproof")
}
