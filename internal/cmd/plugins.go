package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/calcwizard/internal/plugin"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the plugins the wizard would load",
	Long: `Resolve every plugin from the configured source and list the tabs each one
contributes. Plugins that fail to load are listed as unavailable.`,
	Args: cobra.NoArgs,
	RunE: runPlugins,
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}

func runPlugins(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := createLogger(cfg)
	defer func() { _ = logger.Close() }()

	registry := plugin.NewRegistry(newPluginSource(cfg),
		plugin.WithLoadTimeout(cfg.API.Timeout()),
		plugin.WithRegistryLogger(logger),
	)
	descs, err := registry.Resolve(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list plugins: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(descs) == 0 {
		fmt.Fprintf(out, "No plugins found (source: %s).\n", cfg.Plugins.Source)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTABS\tSTATUS")
	for _, d := range descs {
		status := "ok"
		if d.Unavailable() {
			status = "unavailable: " + d.Err.Error()
		}
		caps := strings.Join(d.Capabilities(), ",")
		if caps == "" {
			caps = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Title, caps, status)
	}
	return tw.Flush()
}
