package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/calcwizard/internal/jobstatus"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show a job's process status",
	Long: `Show the process status tree of a submitted job.

By default the status is polled until the job finishes or a query fails.
Use --once to print the current tree and exit.`,
	Args: jobIDArg,
	RunE: runStatus,
}

var statusOnce bool

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusOnce, "once", false, "print the current status and exit")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := createLogger(cfg)
	defer func() { _ = logger.Close() }()

	client, err := newJobClient(cfg, logger)
	if err != nil {
		return err
	}
	jobID := args[0]
	out := cmd.OutOrStdout()

	if statusOnce {
		tree, err := client.ProcessStatus(cmd.Context(), jobID)
		if err != nil {
			return fmt.Errorf("failed to fetch job status: %w", err)
		}
		printTree(out, jobID, tree, cfg.Monitor.MaxTreeDepth)
		return nil
	}

	mon := jobstatus.NewMonitor(client,
		jobstatus.WithInterval(cfg.Monitor.Interval()),
		jobstatus.WithMaxDepth(cfg.Monitor.MaxTreeDepth),
		jobstatus.WithLogger(logger),
		jobstatus.OnUpdate(func(id string, tree *jobstatus.Tree) {
			printTree(out, id, tree, cfg.Monitor.MaxTreeDepth)
		}),
	)
	mon.Start(jobID)
	defer mon.Stop()

	select {
	case <-mon.Done():
	case <-cmd.Context().Done():
		return nil
	}
	if err := mon.Err(); err != nil {
		return fmt.Errorf("failed to fetch job status: %w", err)
	}
	return nil
}

// jobIDArg accepts exactly one non-blank job id.
func jobIDArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	if strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("job id must not be empty")
	}
	return nil
}

func printTree(w io.Writer, jobID string, tree *jobstatus.Tree, maxDepth int) {
	state := "running"
	if jobstatus.IsFinished(tree, maxDepth) {
		state = "finished"
	}
	fmt.Fprintf(w, "Job %s (%s) at %s\n", jobID, state, time.Now().Format(time.TimeOnly))
	fmt.Fprintln(w, strings.Repeat("─", 40))
	for _, line := range tree.Lines() {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)
}
