package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/app"
	"github.com/nnoitra/terminal/internal/config"
	"github.com/nnoitra/terminal/internal/logging"
)

// these are set at build time
var (
	version = "dev"
	commit  = "none"
)

var (
	commandFlag  string
	instanceFlag string
	dbFlag       string
	profileFlag  string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:           "nsh",
	Short:         "Nnoitra shell",
	Long:          `nsh runs a Nnoitra terminal session in the local terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print nsh version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nsh %s (%s)\n", version, commit)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&commandFlag, "command", "c", "", "run one command and exit")
	flags.StringVar(&instanceFlag, "instance", "", "storage instance id to reuse")
	flags.StringVar(&dbFlag, "db", "", "SQLite database path (default from SQLITE_PATH)")
	flags.StringVar(&profileFlag, "profile", "", "shell profile path (default from PROFILE_PATH)")
	flags.StringVar(&logLevelFlag, "log-level", "warn", "log level")
	rootCmd.AddCommand(versionCmd)
}

func run(cmd *cobra.Command, _ []string) error {
	cfg := config.LoadOrDefault()
	switch {
	case cmd.Flags().Changed("db"):
		cfg.Storage.SQLitePath = dbFlag
	case os.Getenv("SQLITE_PATH") == "":
		// Without a database the shell keeps LOCAL storage in memory.
		cfg.Storage.SQLitePath = ""
	}
	if profileFlag != "" {
		cfg.Shell.ProfilePath = profileFlag
	}

	log, err := logging.New(logging.Config{
		Level:       logLevelFlag,
		Development: true,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.BuildInfo{Version: version, Commit: commit}, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			log.Warn("shutdown failed", zap.Error(err))
		}
	}()

	sess, err := a.Sessions.Open(ctx, instanceFlag)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		AutoComplete:    &completer{bus: sess.Bus(), timeout: cfg.Bus.RequestTimeout},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	sh := newShell(sess, rl, rl.Stdout())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := sess.Run(runCtx); err != nil {
			log.Error("session stopped", zap.Error(err))
		}
	}()

	if commandFlag != "" {
		return sh.once(runCtx, commandFlag)
	}
	return sh.interactive(runCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
