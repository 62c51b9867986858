package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/taskr/internal/app"
	"github.com/existflow/taskr/internal/config"
	"github.com/existflow/taskr/internal/logger"
	"github.com/existflow/taskr/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
	dataDir    string
	storageArg string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "taskr",
	Short: "taskr - work and private todos with due dates, trash and a calendar",
	Long: `taskr keeps work and private todos with due dates, attachments,
a recoverable trash and a holiday-aware calendar.

Run 'taskr' without arguments on a terminal to launch the interactive TUI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config from file (or defaults if not exists)
		loaded, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
			loaded = config.DefaultConfig()
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
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = dataDir
			configChanged = true
		}
		if cmd.Flags().Changed("storage") {
			cfg.Storage = storageArg
			configChanged = true
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// Save config if changed via CLI flags
		if configChanged {
			if err := cfg.Save(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to save config: %v\n", err)
			}
		}

		logConfig := logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			FilePath:   cfg.LogFile,
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    cfg.LogConsole,
		}

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("taskr started", logger.F("command", cmd.Name()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return runList(cmd, args)
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(a)

		logger.Info("Launching TUI")
		a.Start()
		m := tui.NewModel(a)
		p := tea.NewProgram(m, tea.WithAltScreen())

		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.F("error", err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}

		logger.Info("TUI exited normally")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("taskr exiting", logger.F("command", cmd.Name()))
		_ = logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// openApp opens the application and runs the purge/sweep pass every command
// starts from
func openApp(ctx context.Context) (*app.App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.Open(ctx, cfg, app.Options{})
	if err != nil {
		logger.Error("Failed to open data", logger.F("error", err))
		return nil, err
	}
	if _, err := a.Refresh(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		logger.Warn("Failed to close data", logger.F("error", err))
	}
}

func init() {
	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the database and snapshot")
	rootCmd.PersistentFlags().StringVar(&storageArg, "storage", "", "Collection storage backend (sqlite, file)")

	// Add subcommands
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rescheduleCmd)
	rootCmd.AddCommand(dupCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(trashCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(holidaysCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
}
