package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yukikurage/task-tracker-api/internal/client"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	"github.com/yukikurage/task-tracker-api/internal/models"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List and change your tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

var tasksCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task",
	Long: `Create a task.

Examples:
  taskctl tasks create "Write spec" --priority high --due 2026-05-01
  taskctl tasks create "Pay rent" --tag home --tag money`,
	Args: cobra.ExactArgs(1),
	RunE: runTasksCreate,
}

var tasksArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive a task, or unarchive it if already archived",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksArchive,
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDelete,
}

func init() {
	tasksListCmd.Flags().StringP("status", "s", "", "Filter by status (pending, in-progress, completed, cancelled)")
	tasksListCmd.Flags().StringP("priority", "p", "", "Filter by priority (low, medium, high, urgent)")
	tasksListCmd.Flags().String("category", "", "Filter by category")
	tasksListCmd.Flags().StringP("search", "q", "", "Search title, description and tags")
	tasksListCmd.Flags().String("sort", "", "Sort by (createdAt, updatedAt, dueDate, priority, status, title)")
	tasksListCmd.Flags().String("order", "", "Sort order (asc, desc)")
	tasksListCmd.Flags().BoolP("all", "a", false, "Include archived tasks")
	tasksListCmd.Flags().Int("page", 1, "Page number")
	tasksListCmd.Flags().IntP("limit", "n", 0, "Tasks per page")

	tasksCreateCmd.Flags().StringP("description", "d", "", "Task description")
	tasksCreateCmd.Flags().StringP("priority", "p", "", "Priority (low, medium, high, urgent)")
	tasksCreateCmd.Flags().String("category", "", "Category")
	tasksCreateCmd.Flags().String("due", "", "Due date (YYYY-MM-DD or RFC 3339)")
	tasksCreateCmd.Flags().StringSliceP("tag", "t", nil, "Tag (repeatable)")

	tasksCmd.AddCommand(tasksListCmd, tasksCreateCmd, tasksArchiveCmd, tasksDeleteCmd)
	rootCmd.AddCommand(tasksCmd)
}

func runTasksList(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetString("status")
	priority, _ := cmd.Flags().GetString("priority")
	category, _ := cmd.Flags().GetString("category")
	search, _ := cmd.Flags().GetString("search")
	sortBy, _ := cmd.Flags().GetString("sort")
	order, _ := cmd.Flags().GetString("order")
	all, _ := cmd.Flags().GetBool("all")
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")

	c, err := newClient()
	if err != nil {
		return err
	}

	resp, err := c.ListTasks(cmd.Context(), client.ListOptions{
		Status:          models.TaskStatus(status),
		Priority:        models.TaskPriority(priority),
		Category:        category,
		Search:          search,
		SortBy:          sortBy,
		SortOrder:       order,
		IncludeArchived: all,
		Page:            page,
		Limit:           limit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(resp.Tasks) == 0 {
		fmt.Fprintln(out, "No tasks found")
		return nil
	}

	printTasks(out, resp.Tasks)
	p := resp.Pagination
	fmt.Fprintf(out, "\nPage %d of %d (%d tasks)\n", p.Page, p.TotalPages, p.Total)
	return nil
}

func printTasks(w io.Writer, tasks []dto.TaskDTO) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE\tTAGS")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Local().Format(time.DateOnly)
		}
		title := t.Title
		if t.Archived {
			title += " (archived)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Status, t.Priority, due, title, strings.Join(t.Tags, ","))
	}
	tw.Flush()
}

func runTasksCreate(cmd *cobra.Command, args []string) error {
	description, _ := cmd.Flags().GetString("description")
	priority, _ := cmd.Flags().GetString("priority")
	category, _ := cmd.Flags().GetString("category")
	dueFlag, _ := cmd.Flags().GetString("due")
	tags, _ := cmd.Flags().GetStringSlice("tag")

	req := client.TaskCreate{
		Title:       args[0],
		Description: description,
		Priority:    models.TaskPriority(priority),
		Category:    category,
		Tags:        tags,
	}
	if dueFlag != "" {
		due, err := parseDue(dueFlag)
		if err != nil {
			return err
		}
		req.DueDate = &due
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	task, err := c.CreateTask(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created task %d: %s\n", task.ID, task.Title)
	return nil
}

// parseDue accepts a calendar date in local time or a full RFC 3339 timestamp.
func parseDue(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func runTasksArchive(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	task, err := c.ToggleArchive(cmd.Context(), id)
	if err != nil {
		return err
	}

	state := "unarchived"
	if task.Archived {
		state = "archived"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Task %d %s\n", task.ID, state)
	return nil
}

func runTasksDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	if err := c.DeleteTask(cmd.Context(), id); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
	return nil
}
