package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/protask/internal/model"
	"github.com/existflow/protask/internal/tui"
	"github.com/spf13/cobra"
)

var memberCmd = &cobra.Command{
	Use:     "member",
	Aliases: []string{"members"},
	Short:   "Manage team members",
}

var memberAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a team member",
	Long: `Add a team member tasks can be assigned to.

Examples:
  protask member add "Ana García" --email ana@example.com --role Engineer`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMemberAdd,
}

var memberListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List team members",
	Args:    cobra.NoArgs,
	RunE:    runMemberList,
}

var memberDeleteCmd = &cobra.Command{
	Use:     "delete [member]",
	Aliases: []string{"rm"},
	Short:   "Remove a team member; their tasks become unassigned",
	Args:    cobra.ExactArgs(1),
	RunE:    runMemberDelete,
}

var deptCmd = &cobra.Command{
	Use:     "dept",
	Aliases: []string{"department", "departments"},
	Short:   "Manage departments",
}

var deptAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a department",
	Long: `Create a department.

Examples:
  protask dept add Quality
  protask dept add Maintenance --color "#F59E0B"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDeptAdd,
}

var deptListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List departments",
	Args:    cobra.NoArgs,
	RunE:    runDeptList,
}

var deptDeleteCmd = &cobra.Command{
	Use:     "delete [department]",
	Aliases: []string{"rm"},
	Short:   "Delete a department",
	Args:    cobra.ExactArgs(1),
	RunE:    runDeptDelete,
}

var (
	memberEmail  string
	memberRole   string
	memberAvatar string
	deptColor    string
)

func init() {
	memberAddCmd.Flags().StringVar(&memberEmail, "email", "", "Email address")
	memberAddCmd.Flags().StringVar(&memberRole, "role", "", "Role")
	memberAddCmd.Flags().StringVar(&memberAvatar, "avatar", "", "Avatar URL")

	deptAddCmd.Flags().StringVarP(&deptColor, "color", "c", model.DefaultDepartmentColor, "Department color (hex)")

	memberCmd.AddCommand(memberAddCmd)
	memberCmd.AddCommand(memberListCmd)
	memberCmd.AddCommand(memberDeleteCmd)

	deptCmd.AddCommand(deptAddCmd)
	deptCmd.AddCommand(deptListCmd)
	deptCmd.AddCommand(deptDeleteCmd)
}

func runMemberAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	m := &model.TeamMember{
		Name:   strings.Join(args, " "),
		Email:  memberEmail,
		Role:   memberRole,
		Avatar: memberAvatar,
	}
	if err := a.svc.AddMember(context.Background(), m); err != nil {
		return err
	}

	fmt.Printf("✓ Added member %s (%s)\n", m.Name, shortID(m.ID))
	return nil
}

func runMemberList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	members, err := a.svc.ListMembers(context.Background(), a.svc.OwnerID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		fmt.Println("No team members. Add one with: protask member add \"Name\"")
		return nil
	}

	fmt.Printf("\n%s\n", headingStyle.Render(fmt.Sprintf("Team (%d)", len(members))))
	fmt.Println(strings.Repeat("─", 70))
	for _, m := range members {
		fmt.Printf("  %-8s  %-24s  %-16s  %s\n", shortID(m.ID), tui.Truncate(m.Name, 24),
			tui.Truncate(m.Role, 16), mutedStyle.Render(m.Email))
	}
	fmt.Println()
	return nil
}

func runMemberDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	members, err := a.svc.ListMembers(ctx, a.svc.OwnerID)
	if err != nil {
		return err
	}
	id, err := resolveMember(members, args[0])
	if err != nil {
		return err
	}
	if err := a.svc.DeleteMember(ctx, a.svc.OwnerID, id); err != nil {
		return err
	}

	fmt.Printf("✓ Removed member %s\n", args[0])
	return nil
}

func runDeptAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	d := &model.Department{Name: strings.Join(args, " "), Color: deptColor}
	if err := a.svc.AddDepartment(context.Background(), d); err != nil {
		return err
	}

	fmt.Printf("✓ Created department %s (%s)\n", d.Name, shortID(d.ID))
	return nil
}

func runDeptList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	departments, err := a.svc.ListDepartments(context.Background(), a.svc.OwnerID)
	if err != nil {
		return err
	}
	if len(departments) == 0 {
		fmt.Println("No departments. Create one with: protask dept add \"Name\"")
		return nil
	}

	fmt.Printf("\n%s\n", headingStyle.Render(fmt.Sprintf("Departments (%d)", len(departments))))
	fmt.Println(strings.Repeat("─", 50))
	for _, d := range departments {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(d.Color)).Render("●")
		fmt.Printf("  %s %-8s  %-24s  %s\n", swatch, shortID(d.ID), tui.Truncate(d.Name, 24), mutedStyle.Render(d.Color))
	}
	fmt.Println()
	return nil
}

func runDeptDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	departments, err := a.svc.ListDepartments(ctx, a.svc.OwnerID)
	if err != nil {
		return err
	}
	id, err := resolveDepartment(departments, args[0])
	if err != nil {
		return err
	}
	if err := a.svc.DeleteDepartment(ctx, a.svc.OwnerID, id); err != nil {
		return err
	}

	fmt.Printf("✓ Deleted department %s\n", args[0])
	return nil
}
