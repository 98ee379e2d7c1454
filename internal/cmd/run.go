package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/calcwizard/internal/config"
	"github.com/Iron-Ham/calcwizard/internal/logging"
	"github.com/Iron-Ham/calcwizard/internal/session"
	"github.com/Iron-Ham/calcwizard/internal/tui"
	"github.com/Iron-Ham/calcwizard/internal/tui/styles"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the calculation wizard",
	Long: `Open the calculation wizard in the terminal.

With --job, the wizard is loaded from a submitted job instead: every step but
the last is confirmed and the job's status is followed until it finishes.`,
	Args: cobra.NoArgs,
	RunE: runWizard,
}

var (
	runJobID string
	runTheme string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runJobID, "job", "", "resume a submitted job by id")
	runCmd.Flags().StringVar(&runTheme, "theme", "", "color theme (overrides tui.theme)")
}

func runWizard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := createLogger(cfg)
	defer func() { _ = logger.Close() }()

	sess, err := newSession(cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	theme := cfg.TUI.Theme
	if runTheme != "" {
		theme = runTheme
	}

	app := tui.New(cmd.Context(), sess, tui.Options{
		Styles:        loadStyles(theme, logger),
		ShowHelp:      cfg.TUI.ShowHelp,
		PreviewFormat: cfg.TUI.PreviewFormat,
		WatchPlugins:  cfg.Plugins.Watch,
	})
	if err := app.Run(cmd.Context()); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// newSession builds a session from config and either starts a fresh wizard
// or resumes runJobID.
func newSession(cmd *cobra.Command, cfg *config.Config, logger *logging.Logger) (*session.Session, error) {
	client, err := newJobClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	sess := session.New(newPluginSource(cfg), client,
		session.WithLogger(logger),
		session.WithMonitorInterval(cfg.Monitor.Interval()),
		session.WithMaxTreeDepth(cfg.Monitor.MaxTreeDepth),
		session.WithLoadTimeout(cfg.API.Timeout()),
	)

	err = sess.Start(cmd.Context())
	if err == nil && runJobID != "" {
		err = sess.Resume(cmd.Context(), runJobID)
	}
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("failed to start wizard: %w", err)
	}
	return sess, nil
}

// loadStyles resolves theme against the built-in palettes and the custom
// themes under {ConfigDir}/themes. Unknown themes fall back to the default.
func loadStyles(theme string, logger *logging.Logger) *styles.Styles {
	themes, errs := styles.DiscoverCustomThemes(filepath.Join(config.ConfigDir(), "themes"))
	for _, err := range errs {
		logger.Warn("skipping custom theme", "error", err.Error())
	}
	if !themes.Valid(theme) {
		fmt.Fprintf(os.Stderr, "Warning: unknown theme %q, using default\n", theme)
	}
	return styles.New(styles.GetPalette(styles.ThemeName(theme), themes))
}
