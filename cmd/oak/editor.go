package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oakshell/oak/internal/logging"
	"github.com/oakshell/oak/internal/session"
)

// editorCmd is the second half of the bootstrap: the shell re-runs itself
// with this command inside the editor's pty.
var editorCmd = &cobra.Command{
	Use:    session.EditorSubcommand + " [files...]",
	Short:  "Run the editor bridge (started by oak itself)",
	Hidden: true,
	Args:   cobra.ArbitraryArgs,
	RunE:   runEditor,
}

func init() {
	rootCmd.AddCommand(editorCmd)
}

func runEditor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogFile(), cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logger.With("component", "editor", "pid", os.Getpid())

	// The pty delivers ^C to the editor; the bridge only stops on hangup.
	signal.Ignore(syscall.SIGINT)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	code, err := session.RunEditor(ctx, cfg, args, log)
	if err != nil {
		log.Error("editor failed", "error", err)
	}
	logger.Close()
	os.Exit(code)
	return nil
}
