package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/protask/internal/config"
	"github.com/existflow/protask/internal/logger"
	"github.com/existflow/protask/internal/remote"
	"github.com/existflow/protask/internal/tui"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
	backend    string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "protask",
	Short: "ProTask - team task dashboard",
	Long: `ProTask tracks team tasks and summarises them on a live dashboard:
status counts, on-time delivery, planned vs unplanned work, department
distribution and per-member workload.

Run 'protask' without arguments to launch the interactive dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config from file (or defaults if not exists)
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}
		if cmd.Flags().Changed("backend") {
			cfg.Backend = backend
			if err := cfg.Validate(); err != nil {
				return err
			}
			configChanged = true
		}

		logConfig := logger.DefaultConfig()
		logConfig.Level = logger.ParseLevel(cfg.LogLevel)
		logConfig.FilePath = cfg.LogFile
		logConfig.Console = cfg.LogConsole

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// Save config if changed via CLI flags
		if configChanged {
			if err := cfg.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}

		logger.Info("ProTask started", logger.F("command", cmd.Name()), logger.F("backend", cfg.Backend))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg)
		if err != nil {
			logger.Error("Failed to open backend", logger.F("error", err))
			return err
		}
		defer a.Close()

		refresher := remote.NewRefresher(a.svc, a.svc.OwnerID, cfg.RefreshInterval)
		defer refresher.Stop()

		logger.Info("Launching TUI")
		m := tui.NewModel(a.svc, refresher, tui.Options{
			ConfirmDelete: cfg.ConfirmDelete,
			Logout:        a.logoutFunc(),
		})
		p := tea.NewProgram(m, tea.WithAltScreen())

		refresher.Start()
		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.F("error", err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}

		logger.Info("TUI exited normally")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("ProTask exiting", logger.F("command", cmd.Name()))
		logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Data backend (local, remote)")

	// Add subcommands
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(deptCmd)
	rootCmd.AddCommand(authCmd)
}
