// Package cli contains the reportctl commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"memberreports/internal/app"
	"memberreports/internal/config"
	"memberreports/internal/logger"
)

var (
	storeBackend string
	reportsDir   string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "reportctl",
	Short: "Manage attendance and membership reports",
	Long: `reportctl works against the same store as the api server.

Configuration is read like the server reads it: defaults, CONFIG_FILE,
.env and the environment. Flags override the store backend and the
directory generated files are written to.

Examples:
  reportctl seed                                    # seed the default catalog
  reportctl list --all                              # list every report
  reportctl generate student_roster -p grade=3      # render a PDF roster
  reportctl generate daily_attendance -f excel -o . # copy the file here
  reportctl sweep                                   # remove expired files
  reportctl token alice                             # mint a staff token`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "Store backend: postgres | memory (default from STORE_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&reportsDir, "reports-dir", "", "Directory for generated files (default from REPORTS_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
}

func loadConfig() config.App {
	cfg := config.Load()
	if storeBackend != "" {
		cfg.StoreBackend = storeBackend
	}
	if reportsDir != "" {
		cfg.ReportsDir = reportsDir
	}
	// The CLI never needs the redis queue; purges happen inline.
	cfg.QueueBackend = "memory"
	cfg.Log.File = ""
	cfg.Log.Console = true
	if verbose {
		cfg.Log.Level = "debug"
	} else {
		cfg.Log.Level = "warn"
	}
	return cfg
}

// withApp builds the service graph for one command invocation.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg := loadConfig()
	logger.Init(cfg.Log)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.Build(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	// A memory store starts empty on every invocation.
	if cfg.StoreBackend == "memory" {
		if _, err := a.Catalog.SeedDefaults(ctx); err != nil {
			return err
		}
	}
	return fn(ctx, a)
}
