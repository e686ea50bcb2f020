package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"squadxp/internal/adapters/logging"
	"squadxp/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigFile string
	EnvFile    string

	cfg       config.Config
	logCloser io.Closer
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCommand creates the squadxp command tree.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "squadxp",
		Short:         "Attendance and XP engine for swim squads",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Options{EnvFile: opts.EnvFile, ConfigFile: opts.ConfigFile})
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logCloser = logging.Setup(logging.Options{
				Level:      cfg.Log.Level,
				Path:       cfg.Log.Path,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAgeDays: cfg.Log.MaxAgeDays,
				Compress:   cfg.IsProduction(),
			})
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser != nil {
				return opts.logCloser.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to a yaml/json/toml config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "path to a .env file (ignored when missing)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newSweepCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}
