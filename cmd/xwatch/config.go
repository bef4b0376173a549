package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xwatch/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage xwatch configuration files.

Configuration can be loaded from:
  - Environment variables (XWATCH_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'config.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration merged from all sources.
The login password is masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Webhook references in watch entries
  - History mode spellings
  - Value types and ranges`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "config.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	exampleConfig := `# xwatch configuration file
#
# You can also use environment variables prefixed with XWATCH_
# For example: XWATCH_USERNAME, XWATCH_PASSWORD, XWATCH_HISTORY_FILE

twitter:
  # Login credentials typed into the real login form when the session
  # expires. Prefer 'xwatch auth login' over putting the password here.
  login:
    username: ""
    password: ""

  # Accounts to watch, keyed by profile name
  watch:
    nasa:
      # Webhook name from discord.webhooks below (required)
      webhook: "space"

      # Dedup scope: by-account (default) or by-author.
      # by-author skips a post the webhook already received from any
      # watched account, useful when profiles repost each other.
      history: "by-account"

      # Post types to relay
      posts: true
      reposts: false
      pinned: false

      # Media classes to relay; a post must match at least one
      with-images: true
      with-videos: true
      without-media: true

      # Seconds between checks of this account
      interval_seconds: 300

discord:
  # Webhook addresses, referenced by name from watch entries
  webhooks:
    space: "https://discord.com/api/webhooks/..."

  # Static styling applied to every relayed message
  embed:
    username: "xwatch"
    avatar_url: ""
    color: 1942002
    flags: 4096

  # Delivery pacing and retry
  requests_per_minute: 30
  max_retries: 3
  delivery_timeout: 15s

browser:
  # Run the browser without a visible window
  headless: true

  # Storage state file holding cookies between runs
  state_file: "state.json"

  viewport:
    width: 1280
    height: 1024

scraper:
  # Sleep between scheduler wakeups when nothing is due
  idle_poll: 30s

  # Wait after a failed login before retrying
  login_backoff: 5m

  # Wait for the timeline to render after navigation or scroll
  settle_delay: 5s

  # Minimum unique posts per pass: first-run backfill vs steady state
  bulk_minimum: 40
  steady_minimum: 10

  # Give up scrolling after this many passes
  max_scroll_passes: 40

history:
  # Seen-post store, safe to inspect while the daemon is stopped
  file: "history.json"

  # Canonicalize "/author/status/123" ids to "author/123"
  normalize: true

logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional), stdout only when empty
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	fmt.Println("Configuration file created:", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Add your webhook addresses and the accounts to watch")
	fmt.Println("2. Run 'xwatch config validate' to check the configuration")
	fmt.Println("3. Store login credentials with 'xwatch auth login'")
	fmt.Println("4. Start the daemon with 'xwatch watch'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	displayCfg := *cfg
	if displayCfg.Twitter.Login.Password != "" {
		displayCfg.Twitter.Login.Password = "***"
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Println("Configuration is valid")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Watched accounts: %d\n", len(cfg.Twitter.Watch))
	fmt.Printf("  Webhooks: %d\n", len(cfg.Discord.Webhooks))
	fmt.Printf("  History file: %s\n", cfg.History.File)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.Discord.RequestsPerMinute)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
