package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"xwatch/pkg/auth"
	"xwatch/pkg/config"
	"xwatch/pkg/discord"
	"xwatch/pkg/history"
	"xwatch/pkg/logger"
	"xwatch/pkg/twitter"
	"xwatch/pkg/watcher"
)

var (
	// Watch command flags
	headless  bool
	stateFile string
	loginName string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the watcher daemon",
	Long: `Run the watcher daemon until interrupted.

The daemon checks each configured account on its own interval. The first
check of an account records its current timeline silently; later checks
relay new posts that pass the account's filters to its webhook.

Login credentials are resolved in this order:
  - Stored credentials (use 'xwatch auth login' to store)
  - Environment variables (XWATCH_USERNAME and XWATCH_PASSWORD)
  - Configuration file`,
	Example: `  # Run with the default config file
  xwatch watch

  # Run with an explicit config and a visible browser window
  xwatch watch --config watch.yaml --headless=false

  # Use a specific stored login
  xwatch watch --account myburner`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	watchCmd.Flags().StringVar(&stateFile, "state-file", "", "browser storage state file")
	watchCmd.Flags().StringVarP(&loginName, "account", "a", "", "use a specific stored login")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if stateFile != "" {
		cfg.Browser.StateFile = stateFile
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("xwatch starting")

	if err := resolveCredentials(cfg); err != nil {
		return err
	}

	session, err := twitter.NewSession(cfg.Browser, cfg.Scraper)
	if err != nil {
		return fmt.Errorf("failed to start browser session: %w", err)
	}
	defer session.Close()

	store := history.NewStore(cfg.History.File,
		history.WithNormalization(cfg.History.Normalize))
	client := discord.NewClient(&cfg.Discord)

	w, err := watcher.New(cfg, session, client, store)
	if err != nil {
		return fmt.Errorf("failed to build watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	log.Info("shutdown complete")
	return nil
}

// resolveCredentials fills in login credentials from the credential manager
// when the config does not carry them
func resolveCredentials(cfg *config.Config) error {
	if cfg.Twitter.Login.Username != "" && cfg.Twitter.Login.Password != "" && loginName == "" {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var creds *auth.Credentials
	if loginName != "" {
		creds, err = manager.Retrieve(loginName)
		if err != nil {
			return fmt.Errorf("stored login %q not found, use 'xwatch auth list' to see stored logins", loginName)
		}
	} else {
		creds, err = manager.RetrieveDefault()
		if err != nil {
			return fmt.Errorf("no login credentials found: set them in the config file, " +
				"run 'xwatch auth login', or export XWATCH_USERNAME and XWATCH_PASSWORD")
		}
	}

	cfg.Twitter.Login.Username = creds.Username
	cfg.Twitter.Login.Password = creds.Password
	logger.GetLogger().WithField("login", creds.Username).Info("using stored credentials")

	return nil
}
