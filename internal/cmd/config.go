package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/calcwizard/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View calcwizard configuration",
	Long: `View calcwizard configuration.

Without arguments, displays the current configuration.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/calcwizard/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configInitForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
}

// fileConfig mirrors config.Config with yaml tags for writing config files.
type fileConfig struct {
	API struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"api"`
	Plugins struct {
		Source string `yaml:"source"`
		URL    string `yaml:"url"`
		Dir    string `yaml:"dir"`
		Watch  bool   `yaml:"watch"`
	} `yaml:"plugins"`
	Monitor struct {
		IntervalMs   int `yaml:"interval_ms"`
		MaxTreeDepth int `yaml:"max_tree_depth"`
	} `yaml:"monitor"`
	Cache struct {
		JobRecords int `yaml:"job_records"`
	} `yaml:"cache"`
	TUI struct {
		ShowHelp      bool   `yaml:"show_help"`
		PreviewFormat string `yaml:"preview_format"`
		Theme         string `yaml:"theme"`
	} `yaml:"tui"`
	Logging struct {
		Enabled bool   `yaml:"enabled"`
		Level   string `yaml:"level"`
		Dir     string `yaml:"dir"`
	} `yaml:"logging"`
}

func toFileConfig(cfg *config.Config) fileConfig {
	var fc fileConfig
	fc.API.BaseURL = cfg.API.BaseURL
	fc.API.TimeoutSeconds = cfg.API.TimeoutSeconds
	fc.Plugins.Source = cfg.Plugins.Source
	fc.Plugins.URL = cfg.Plugins.URL
	fc.Plugins.Dir = cfg.Plugins.Dir
	fc.Plugins.Watch = cfg.Plugins.Watch
	fc.Monitor.IntervalMs = cfg.Monitor.IntervalMs
	fc.Monitor.MaxTreeDepth = cfg.Monitor.MaxTreeDepth
	fc.Cache.JobRecords = cfg.Cache.JobRecords
	fc.TUI.ShowHelp = cfg.TUI.ShowHelp
	fc.TUI.PreviewFormat = cfg.TUI.PreviewFormat
	fc.TUI.Theme = cfg.TUI.Theme
	fc.Logging.Enabled = cfg.Logging.Enabled
	fc.Logging.Level = cfg.Logging.Level
	fc.Logging.Dir = cfg.Logging.Dir
	return fc
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "Configuration is invalid, showing defaults:\n%v\n\n", err)
		cfg = config.Default()
	}

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "Config file: (none - using defaults)")
	}
	fmt.Fprintln(out)

	data, err := yaml.Marshal(toFileConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ConfigFile()
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(toFileConfig(config.Default()))
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	header := "# calcwizard configuration\n# Environment variables override these keys, e.g. CALCWIZARD_API_BASE_URL.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintln(out, used)
		return nil
	}
	fmt.Fprintln(out, config.ConfigFile())
	return nil
}
