// Package cmd is the calcwizard command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/calcwizard/internal/config"
	"github.com/Iron-Ham/calcwizard/internal/jobs"
	"github.com/Iron-Ham/calcwizard/internal/logging"
	"github.com/Iron-Ham/calcwizard/internal/plugin"
)

var rootCmd = &cobra.Command{
	Use:   "calcwizard",
	Short: "Step-by-step calculation submission wizard",
	Long: `calcwizard walks through a five step calculation wizard (structure,
workflow settings, computational resources, review and submit, status and
results), extended at runtime by plugins, and follows submitted jobs until
they finish.`,
	SilenceUsage: true,
}

// Execute runs the root command. Cancelling ctx stops long-running commands.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/calcwizard/config.yaml)")
	rootCmd.PersistentFlags().String("api", "", "job service base URL (overrides api.base_url)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api"))
}

func initConfig() {
	// A missing .env is normal
	_ = godotenv.Load()

	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(config.EnvPrefix)
	// CALCWIZARD_MONITOR_INTERVAL_MS for monitor.interval_ms
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.ReadInConfig()
}

// loadConfig loads and validates the configuration for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// createLogger creates a logger if logging is enabled in config.
// Returns a NopLogger if logging is disabled or if creation fails.
func createLogger(cfg *config.Config) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}
	logger, err := logging.NewLogger(cfg.Logging.ResolveDir(), cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create logger: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}

func newJobClient(cfg *config.Config, logger *logging.Logger) (*jobs.Client, error) {
	client, err := jobs.NewClient(cfg.API.BaseURL,
		jobs.WithTimeout(cfg.API.Timeout()),
		jobs.WithCacheSize(cfg.Cache.JobRecords),
		jobs.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job client: %w", err)
	}
	return client, nil
}

// newPluginSource builds the configured plugin source. The static source
// carries no plugins, leaving only the built-in tabs.
func newPluginSource(cfg *config.Config) plugin.Source {
	switch cfg.Plugins.Source {
	case "dir":
		return plugin.NewDirSource(cfg.Plugins.ResolveDir())
	case "static":
		return plugin.NewStaticSource()
	default:
		return plugin.NewHTTPSource(cfg.Plugins.URL, plugin.WithTimeout(cfg.API.Timeout()))
	}
}
