package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oakshell/oak/internal/app"
	"github.com/oakshell/oak/internal/config"
	"github.com/oakshell/oak/internal/logging"
	"github.com/oakshell/oak/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "oak [files...]",
	Short: "A terminal shell around neovim with per-project builders",
	Long: `oak runs neovim next to a project tree and a builder pane that runs
the selected project's run, build, test and clean commands.

Projects, the open file, easy mode and the font size are remembered between
runs in the data directory ($XDG_CONFIG_HOME/oak, or OAK_CONFIG_DIR).`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

var noWindow bool

func init() {
	rootCmd.Flags().BoolVar(&noWindow, "nw", false, "run the editor alone in this terminal")
}

// loadConfig loads the config file and prepares the data directory.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return cfg, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if noWindow {
		code, err := session.RunHeadless(cfg, args)
		if err != nil {
			return err
		}
		os.Exit(code)
	}

	logger, err := logging.New(cfg.LogFile(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Close()

	application, err := app.New(cfg, logger.Logger, app.Options{Files: args})
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	return application.Run()
}
