package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a task overview",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().String("timezone", "", "IANA zone that decides what \"today\" is (default: server zone)")
	statsCmd.Flags().BoolP("all", "a", false, "Count archived tasks too")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	timezone, _ := cmd.Flags().GetString("timezone")
	all, _ := cmd.Flags().GetBool("all")

	c, err := newClient()
	if err != nil {
		return err
	}

	stats, err := c.Stats(cmd.Context(), timezone, all)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%d\n", stats.Total)
	fmt.Fprintf(tw, "Archived\t%d\n", stats.Archived)
	fmt.Fprintf(tw, "Overdue\t%d\n", stats.Overdue)
	fmt.Fprintf(tw, "Due today\t%d\n", stats.DueToday)
	for _, s := range models.TaskStatuses {
		fmt.Fprintf(tw, "Status %s\t%d\n", s, stats.ByStatus[s])
	}
	for _, p := range models.TaskPriorities {
		fmt.Fprintf(tw, "Priority %s\t%d\n", p, stats.ByPriority[p])
	}
	return tw.Flush()
}
