package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xwatch/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage X login credentials",
	Long: `Manage stored X login credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Use a secondary account for watching; the daemon types these credentials
into the real login form whenever the session expires.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store X login credentials securely",
	Long: `Store an X username and password in the system keychain or an
encrypted file. The password prompt does not echo.`,
	Example: `  # Interactive login
  xwatch auth login

  # Login with username
  xwatch auth login myburner`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Long: `Remove stored X login credentials.

If no username is provided, you will be shown a list of stored logins
to choose from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored logins",
	Long:  `List all stored X logins with passwords masked.`,
	RunE:  runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("X username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Printf("Login %q already exists. Update password? (y/N): ", username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Print("Password: ")
	password, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	creds := &auth.Credentials{
		Username: username,
		Password: password,
	}

	if err := manager.Store(creds); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	fmt.Printf("Login saved: %s\n", username)
	fmt.Println("\nStart the daemon with:")
	fmt.Println("  xwatch watch")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if len(args) > 0 {
		username := args[0]
		if err := manager.Delete(username); err != nil {
			return fmt.Errorf("failed to remove login: %w", err)
		}
		fmt.Printf("Login removed: %s\n", username)
		return nil
	}

	logins, err := manager.List()
	if err != nil || len(logins) == 0 {
		return fmt.Errorf("no stored logins found")
	}

	if len(logins) == 1 {
		reader := bufio.NewReader(os.Stdin)
		fmt.Printf("Remove login %q? (y/N): ", logins[0].Username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
		if err := manager.Delete(logins[0].Username); err != nil {
			return fmt.Errorf("failed to remove login: %w", err)
		}
		fmt.Printf("Login removed: %s\n", logins[0].Username)
		return nil
	}

	fmt.Println("Select login to remove:")
	for i, login := range logins {
		fmt.Printf("  %d. %s\n", i+1, login.Username)
	}
	fmt.Printf("  0. Cancel\n\n")

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	if choice < 1 || choice > len(logins) {
		return nil
	}

	username := logins[choice-1].Username
	if err := manager.Delete(username); err != nil {
		return fmt.Errorf("failed to remove login: %w", err)
	}
	fmt.Printf("Login removed: %s\n", username)
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	logins, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list logins: %w", err)
	}

	if len(logins) == 0 {
		fmt.Println("No stored logins. Use 'xwatch auth login' to add one.")
		return nil
	}

	for i, login := range logins {
		sanitized := auth.Sanitize(login)
		fmt.Printf("%d. Username: %s\n", i+1, sanitized.Username)
		fmt.Printf("   Password: %s\n", sanitized.Password)
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
	return nil
}

// readPassword reads a password from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
