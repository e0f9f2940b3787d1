package command

// root.go defines the foodgram-admin root command and the helpers every
// subcommand shares.

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"foodgram/database"
	"foodgram/internal/config"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "foodgram-admin",
	Short: "foodgram-admin - Foodgram maintenance tasks",
	Long: `foodgram-admin runs maintenance tasks against the Foodgram database:
apply migrations and load the tag and ingredient catalog.

It reads the same environment (and optional .env) as the API server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every skipped record")
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openDB connects with the API's settings. Connect also migrates.
func openDB(log *slog.Logger) (*gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	return db, nil
}
