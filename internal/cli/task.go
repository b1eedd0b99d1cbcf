package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/existflow/protask/internal/aggregate"
	"github.com/existflow/protask/internal/model"
	"github.com/existflow/protask/internal/store"
	"github.com/existflow/protask/internal/tui"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long:  `Create, list, update and delete tasks.`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Long: `Add a new pending task.

Examples:
  protask task add "Replace pump seals" -p High --assign Ana --hours 6
  protask task add "Audit line 3" --dept Quality --end 2024-06-30 --field machine=P-3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks, optionally filtered.

A quick filter (--quick) behaves like clicking a dashboard card: it replaces
every other filter.

Examples:
  protask task list --status "In Progress"
  protask task list --priority Urgent --search pump
  protask task list --from 2024-06-01 --to 2024-06-30
  protask task list --quick Delayed`,
	Args: cobra.NoArgs,
	RunE: runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update [task-id]",
	Short: "Edit task fields",
	Long: `Edit the fields given as flags; everything else is kept.

Examples:
  protask task update 3f2a --title "Replace all seals" --hours 8
  protask task update 3f2a --assign "" --end 2024-07-15`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskUpdate,
}

var taskStatusCmd = &cobra.Command{
	Use:   "status [task-id] [status]",
	Short: "Change task status",
	Long: `Move a task to Pending, In Progress, Completed or Rejected.

Examples:
  protask task status 3f2a in-progress
  protask task status 3f2a completed`,
	Args: cobra.ExactArgs(2),
	RunE: runTaskStatus,
}

var taskDeleteCmd = &cobra.Command{
	Use:     "delete [task-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskDelete,
}

var taskAttachCmd = &cobra.Command{
	Use:   "attach [task-id] [image]",
	Short: "Attach an image to a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskAttach,
}

// taskFlags are shared by add and update
type taskFlags struct {
	title    string
	project  string
	desc     string
	assign   string
	dept     string
	priority string
	hours    float64
	start    string
	end      string
	fields   map[string]string
}

var (
	addFlags    taskFlags
	updateFlags taskFlags
	listOpts    listOptions
	listJSON    bool
	deleteYes   bool
)

func bindTaskFlags(cmd *cobra.Command, f *taskFlags) {
	cmd.Flags().StringVarP(&f.project, "project", "P", "", "Project id")
	cmd.Flags().StringVar(&f.desc, "desc", "", "Description")
	cmd.Flags().StringVarP(&f.assign, "assign", "a", "", "Assignee (member id or name)")
	cmd.Flags().StringVar(&f.dept, "dept", "", "Department (id or name)")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "Medium", "Priority (Low, Medium, High, Urgent)")
	cmd.Flags().Float64Var(&f.hours, "hours", 0, "Estimated hours")
	cmd.Flags().StringVar(&f.start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "Deadline (YYYY-MM-DD)")
	cmd.Flags().StringToStringVar(&f.fields, "field", nil, "Custom field key=value (repeatable)")
}

func init() {
	bindTaskFlags(taskAddCmd, &addFlags)
	bindTaskFlags(taskUpdateCmd, &updateFlags)
	taskUpdateCmd.Flags().StringVar(&updateFlags.title, "title", "", "New title")

	taskListCmd.Flags().StringVarP(&listOpts.status, "status", "s", "", "Filter by status")
	taskListCmd.Flags().StringVarP(&listOpts.priority, "priority", "p", "", "Filter by priority")
	taskListCmd.Flags().BoolVar(&listOpts.delayed, "delayed", false, "Only overdue tasks")
	taskListCmd.Flags().StringVarP(&listOpts.search, "search", "q", "", "Search title and project id")
	taskListCmd.Flags().StringVar(&listOpts.from, "from", "", "Start date on or after (YYYY-MM-DD)")
	taskListCmd.Flags().StringVar(&listOpts.to, "to", "", "Start date on or before (YYYY-MM-DD)")
	taskListCmd.Flags().StringVar(&listOpts.quick, "quick", "", "Quick filter (Completed, In Progress, Pending, Rejected, Urgent, Delayed)")
	taskListCmd.Flags().BoolVar(&listJSON, "json", false, "Print as JSON")

	taskDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip confirmation")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskStatusCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskAttachCmd)
}

// listOptions are the raw list flags
type listOptions struct {
	status   string
	priority string
	delayed  bool
	search   string
	from     string
	to       string
	quick    string
}

// criteria turns the flags into list criteria. A quick filter goes through
// the same one-shot slot the dashboard uses and replaces the other flags.
func (o listOptions) criteria() (aggregate.Criteria, error) {
	var c aggregate.Criteria

	if o.status != "" {
		s, err := model.ParseStatus(o.status)
		if err != nil {
			return c, err
		}
		c.Status = s
	}
	if o.priority != "" {
		p, err := model.ParsePriority(o.priority)
		if err != nil {
			return c, err
		}
		c.Priority = p
	}
	c.Delayed = o.delayed
	c.Search = o.search

	if o.from != "" {
		if c.From = model.ParseDate(o.from); c.From == nil {
			return c, fmt.Errorf("invalid --from date %q", o.from)
		}
	}
	if o.to != "" {
		to := model.ParseDate(o.to)
		if to == nil {
			return c, fmt.Errorf("invalid --to date %q", o.to)
		}
		if len(strings.TrimSpace(o.to)) == len(model.DateLayout) {
			end := model.EndOfDay(*to)
			to = &end
		}
		c.To = to
	}

	if o.quick != "" {
		token, err := aggregate.ParseToken(o.quick)
		if err != nil {
			return c, err
		}
		var q aggregate.QuickFilter
		q.Set(token)
		c, _ = c.Consume(&q)
	}
	return c, nil
}

// resolveMember finds a member by id, id prefix or case-insensitive name
func resolveMember(members []model.TeamMember, s string) (string, error) {
	for _, m := range members {
		if m.ID == s || strings.EqualFold(m.Name, s) || strings.EqualFold(m.FirstName(), s) {
			return m.ID, nil
		}
	}
	for _, m := range members {
		if len(s) >= 4 && strings.HasPrefix(m.ID, s) {
			return m.ID, nil
		}
	}
	return "", fmt.Errorf("member %q: %w", s, store.ErrNotFound)
}

// resolveDepartment finds a department by id, id prefix or case-insensitive name
func resolveDepartment(departments []model.Department, s string) (string, error) {
	for _, d := range departments {
		if d.ID == s || strings.EqualFold(d.Name, s) {
			return d.ID, nil
		}
	}
	for _, d := range departments {
		if len(s) >= 4 && strings.HasPrefix(d.ID, s) {
			return d.ID, nil
		}
	}
	return "", fmt.Errorf("department %q: %w", s, store.ErrNotFound)
}

// apply copies the flags the user set onto t
func (f taskFlags) apply(cmd *cobra.Command, t *model.Task, snap aggregate.Snapshot) error {
	changed := cmd.Flags().Changed

	if changed("title") {
		t.Title = f.title
	}
	if changed("project") {
		t.ProjectID = f.project
	}
	if changed("desc") {
		t.Description = f.desc
	}
	if changed("assign") {
		t.AssignedTo = ""
		if f.assign != "" {
			id, err := resolveMember(snap.Members, f.assign)
			if err != nil {
				return err
			}
			t.AssignedTo = id
		}
	}
	if changed("dept") {
		t.DepartmentID = ""
		if f.dept != "" {
			id, err := resolveDepartment(snap.Departments, f.dept)
			if err != nil {
				return err
			}
			t.DepartmentID = id
		}
	}
	if changed("priority") || t.Priority == "" {
		p, err := model.ParsePriority(f.priority)
		if err != nil {
			return err
		}
		t.Priority = p
	}
	if changed("hours") {
		t.EstimatedHours = f.hours
	}
	if changed("start") {
		t.StartDate = model.ParseDate(f.start)
		if f.start != "" && t.StartDate == nil {
			return fmt.Errorf("invalid --start date %q", f.start)
		}
	}
	if changed("end") {
		t.EndDate = model.ParseDate(f.end)
		if f.end != "" && t.EndDate == nil {
			return fmt.Errorf("invalid --end date %q", f.end)
		}
	}
	if len(f.fields) > 0 {
		if t.CustomFields == nil {
			t.CustomFields = map[string]string{}
		}
		for k, v := range f.fields {
			if v == "" {
				delete(t.CustomFields, k)
			} else {
				t.CustomFields[k] = v
			}
		}
	}
	return nil
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	snap, err := a.snapshot(ctx)
	if err != nil {
		return err
	}

	t := &model.Task{Title: strings.Join(args, " ")}
	if err := addFlags.apply(cmd, t, snap); err != nil {
		return err
	}
	if err := a.svc.AddTask(ctx, t, snap.Members); err != nil {
		return err
	}

	fmt.Printf("✓ Added %s: %q (%s)\n", shortID(t.ID), t.Title, t.Priority)
	a.flushNotifications()
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	criteria, err := listOpts.criteria()
	if err != nil {
		return err
	}

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.snapshot(context.Background())
	if err != nil {
		return err
	}

	now := time.Now()
	tasks := aggregate.FilterTasks(snap.Tasks, criteria, now)

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	}

	if len(tasks) == 0 {
		if criteria.IsEmpty() {
			fmt.Println("No tasks found. Add one with: protask task add \"Your task\"")
		} else {
			fmt.Println("No tasks match the filters.")
		}
		return nil
	}

	printTasks(snap, tasks, now)
	return nil
}

// loadTask opens the backend and resolves a task by id or prefix
func loadTask(id string) (*app, aggregate.Snapshot, *model.Task, error) {
	a, err := openApp(cfg)
	if err != nil {
		return nil, aggregate.Snapshot{}, nil, err
	}
	snap, err := a.snapshot(context.Background())
	if err != nil {
		a.Close()
		return nil, snap, nil, err
	}
	t, err := store.FindTask(snap.Tasks, id)
	if err != nil {
		a.Close()
		return nil, snap, nil, err
	}
	return a, snap, t, nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	a, snap, t, err := loadTask(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	printTaskDetail(snap, t)
	return nil
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	a, snap, t, err := loadTask(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	if err := updateFlags.apply(cmd, t, snap); err != nil {
		return err
	}
	if err := a.svc.SaveTask(context.Background(), t); err != nil {
		return err
	}

	fmt.Printf("✓ Updated %s: %q\n", shortID(t.ID), t.Title)
	return nil
}

func runTaskStatus(cmd *cobra.Command, args []string) error {
	status, err := model.ParseStatus(args[1])
	if err != nil {
		return err
	}

	a, _, t, err := loadTask(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.svc.ChangeStatus(context.Background(), t, status); err != nil {
		return err
	}

	fmt.Printf("✓ %s → %s\n", tui.Truncate(t.Title, 40), t.Status.Label())
	a.flushNotifications()
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	a, _, t, err := loadTask(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.ConfirmDelete && !deleteYes {
		ok, err := confirm(cmd.InOrStdin(), fmt.Sprintf("Delete %q? [y/N] ", t.Title))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := a.svc.RemoveTask(context.Background(), t.ID); err != nil {
		return err
	}

	fmt.Printf("✓ Deleted: %q\n", t.Title)
	return nil
}

func runTaskAttach(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	a, _, t, err := loadTask(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	url, err := a.svc.AttachImage(context.Background(), a.svc.OwnerID, t.ID, args[1], f)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Attached to %q: %s\n", t.Title, url)
	return nil
}

// confirm asks a yes/no question on r
func confirm(r io.Reader, prompt string) (bool, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
