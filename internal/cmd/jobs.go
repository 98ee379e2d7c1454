package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Browse and delete submitted jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submitted jobs",
	Args:  cobra.NoArgs,
	RunE:  runJobsList,
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job and its provenance",
	Long: `Delete a job and every node it produced.

Use --dry-run to see what would be deleted without deleting anything.`,
	Args: jobIDArg,
	RunE: runJobsDelete,
}

var jobsDeleteDryRun bool

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsDeleteCmd)
	jobsDeleteCmd.Flags().BoolVar(&jobsDeleteDryRun, "dry-run", false, "show what would be deleted")
}

func runJobsList(cmd *cobra.Command, args []string) error {
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
	list, err := client.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No jobs found.")
		fmt.Fprintln(out, "Run 'calcwizard run' to submit one.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tSTATE\tCREATED\tPROPERTIES")
	for _, j := range list {
		props := strings.Join(j.Properties, ",")
		if props == "" {
			props = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", j.ID, orDash(j.Label), orDash(j.ProcessState), orDash(j.Created), props)
	}
	return tw.Flush()
}

func runJobsDelete(cmd *cobra.Command, args []string) error {
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
	res, err := client.Delete(cmd.Context(), args[0], jobsDeleteDryRun)
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	switch {
	case jobsDeleteDryRun:
		fmt.Fprintf(out, "Dry run: job %s would delete %d node(s).\n", args[0], len(res.DeletedNodes))
	case res.Deleted:
		fmt.Fprintf(out, "Deleted job %s (%d node(s)).\n", args[0], len(res.DeletedNodes))
	default:
		fmt.Fprintf(out, "Job %s was not deleted.\n", args[0])
	}
	if res.Message != "" {
		fmt.Fprintln(out, res.Message)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
