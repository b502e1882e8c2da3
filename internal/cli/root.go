package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lazypower/llamadrama/internal/config"
	"github.com/lazypower/llamadrama/internal/store"
)

var (
	flagConfig string
	flagDB     string
	flagDebug  bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "llamadrama",
	Short:         "Track 1-on-1 meetings with your team",
	Long:          "llamadrama keeps notes on 1-on-1s and tells you who you have not talked to in a while and how regular your meetings are.",
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		cfg = c
		setupLogging(cfg.Log.Level, flagDebug)
		return nil
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.llamadrama/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (overrides database.path)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// setupLogging points the global zerolog logger at stderr.
func setupLogging(level string, debug bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()
}

// dbPath resolves the database location: --db, then config, then the default.
func dbPath() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	if cfg != nil && cfg.Database.Path != "" {
		return cfg.Database.Path, nil
	}
	return store.DefaultDBPath()
}

// openDB opens the database for CLI commands, in the configured time zone.
func openDB() (*store.DB, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if cfg != nil {
		loc, err := cfg.Location()
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := db.SetLocation(loc); err != nil {
			db.Close()
			return nil, fmt.Errorf("set time zone: %w", err)
		}
	}
	return db, nil
}
