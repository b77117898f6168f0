package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/guard-roster/cmd/cli/commands"
	"github.com/jakechorley/guard-roster/internal/config"
	"github.com/jakechorley/guard-roster/pkg/utils/logging"
)

var (
	env     string
	logDir  string
	verbose bool
)

var app = &commands.AppContext{Ctx: context.Background()}

func main() {
	rootCmd := &cobra.Command{
		Use:   "guard-roster",
		Short: "Guard Roster - Optimise security guard shift assignments",
		Long:  `A CLI tool for assigning guards to shifts at minimum cost within labour and certification rules.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "logs", "Directory for JSON log files (empty disables)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")

	rootCmd.AddCommand(commands.OptimizeCmd(app))
	rootCmd.AddCommand(commands.HolidaysCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp loads .env, sets up the logger and loads configuration
func initApp() error {
	var err error

	// A missing .env is fine; variables may come from the shell
	_ = godotenv.Load(".env")

	app.Env = env
	app.Logger, err = logging.InitLogger(env, logging.Options{Dir: logDir, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Debug("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("timezone", app.Cfg.Timezone),
		zap.String("solver", app.Cfg.Optimizer.Solver),
		zap.Int("num_workers", app.Cfg.Optimizer.NumWorkers))

	return nil
}
