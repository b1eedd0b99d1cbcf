package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/existflow/protask/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Manage the session with a hosted ProTask server.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the server",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from the server",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account on the server",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend and login status",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authServerCmd = &cobra.Command{
	Use:   "server [url]",
	Short: "Set the server URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthServer,
}

var useRemote bool

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authServerCmd)

	loginCmd.Flags().BoolVar(&useRemote, "use", true, "Switch the backend to remote after login")
	registerCmd.Flags().BoolVar(&useRemote, "use", true, "Switch the backend to remote after registering")
}

func readLine(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readPassword(prompt string) string {
	fmt.Print(prompt)
	passwordBytes, _ := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(passwordBytes)
}

func switchToRemote() {
	if !useRemote || cfg.Backend == config.BackendRemote {
		return
	}
	cfg.Backend = config.BackendRemote
	if err := cfg.Save(); err != nil {
		fmt.Printf("Warning: could not switch backend: %v\n", err)
		return
	}
	fmt.Println("Backend switched to remote.")
}

func runLogin(cmd *cobra.Command, args []string) error {
	client, err := newRemoteClient(cfg)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	username := readLine(reader, "Username: ")
	password := readPassword("Password: ")

	fmt.Printf("🔄 Logging in to %s...\n", client.Session().ServerURL)
	if err := client.Login(context.Background(), username, password); err != nil {
		return err
	}

	fmt.Println("✅ Logged in successfully!")
	switchToRemote()
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	client, err := newRemoteClient(cfg)
	if err != nil {
		return err
	}

	if !client.IsLoggedIn() {
		fmt.Println("Not logged in.")
		return nil
	}

	fmt.Println("🔄 Logging out...")
	if err := client.Logout(context.Background()); err != nil {
		return err
	}

	fmt.Println("✅ Logged out successfully.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	client, err := newRemoteClient(cfg)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	username := readLine(reader, "Username: ")
	email := readLine(reader, "Email: ")
	password := readPassword("Password: ")
	confirm := readPassword("Confirm Password: ")

	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	fmt.Println("🔄 Creating account...")
	if err := client.Register(context.Background(), username, email, password); err != nil {
		return err
	}

	fmt.Println("✅ Account created and logged in!")
	switchToRemote()
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	fmt.Printf("Backend:  %s\n", cfg.Backend)
	if cfg.Backend == config.BackendLocal {
		fmt.Printf("Database: %s\n", cfg.DBPath)
		fmt.Printf("Owner:    %s\n", cfg.OwnerID)
	}

	client, err := newRemoteClient(cfg)
	if err != nil {
		return err
	}
	s := client.Session()
	fmt.Printf("Server:   %s\n", s.ServerURL)
	if !client.IsLoggedIn() {
		fmt.Println("Session:  not logged in")
		return nil
	}

	user, err := client.Me(context.Background())
	if err != nil {
		fmt.Printf("Session:  %s (unverified: %v)\n", s.UserID, err)
		return nil
	}
	fmt.Printf("Session:  %s <%s>", user.Username, user.Email)
	if !s.ExpiresAt.IsZero() {
		fmt.Printf(", expires %s", s.ExpiresAt.Local().Format("2006-01-02"))
	}
	fmt.Println()
	return nil
}

func runAuthServer(cmd *cobra.Command, args []string) error {
	client, err := newRemoteClient(cfg)
	if err != nil {
		return err
	}
	if err := client.SetServer(args[0]); err != nil {
		return err
	}

	cfg.ServerURL = client.Session().ServerURL
	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Printf("✓ Server set to %s\n", cfg.ServerURL)
	return nil
}
