package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"squadxp/internal/adapters/storage"
	"squadxp/internal/application/orchestrators"
)

// newSweepCommand creates the one-shot sweep command, meant for cron.
func newSweepCommand(opts *rootOptions) *cobra.Command {
	var snapshots bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Archive every stale practice once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openWiring(opts.cfg)
			if err != nil {
				return err
			}
			defer rt.close()

			go rt.queue.Run(context.Background())
			defer rt.queue.Close()

			ctx := cmd.Context()
			res, err := orchestrators.ExecuteSweep(ctx, rt.engine)
			if err != nil {
				return err
			}
			if snapshots {
				if _, err := orchestrators.ExecuteSampleSnapshots(ctx, rt.snapshots); err != nil {
					return err
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "also sample today's daily snapshots")
	return cmd
}

// newMigrateCommand creates the migrate command.
func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(opts.cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			v, err := storage.SchemaVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", opts.cfg.DB.Path, v)
			return nil
		},
	}
}

// newVersionCommand creates the version command.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		// Needs no config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "squadxp %s (schema %d)\n", version, storage.LatestSchemaVersion())
			return nil
		},
	}
}
