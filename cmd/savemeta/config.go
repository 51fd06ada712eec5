package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/choplin/savemeta/internal/config"
	"github.com/choplin/savemeta/internal/metadata"
)

// recordKeys are the configuration fields kept in metadata.json rather than in
// the config file.
var recordKeys = []string{"auto_save_enabled", "auto_save_interval_ms", "backup_retention_count", "migration_completed"}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}

	cmd.AddCommand(newConfigShowCmd(opts))
	cmd.AddCommand(newConfigGetCmd(opts))
	cmd.AddCommand(newConfigSetCmd(opts))

	return cmd
}

func newConfigShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", opts.resolvedConfigPath())
			for _, key := range config.Keys {
				value, err := cfg.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s = %s\n", key, value)
			}

			session, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = session.Close()
			}()

			fmt.Fprintf(out, "# %s\n", session.Store.Path())
			rec := session.Store.Metadata()
			for _, key := range recordKeys {
				fmt.Fprintf(out, "%s = %s\n", key, recordValue(rec, key))
			}
			return nil
		},
	}
}

func newConfigGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			if slices.Contains(recordKeys, key) {
				session, err := opts.openSession(cmd)
				if err != nil {
					return err
				}
				defer func() {
					_ = session.Close()
				}()
				fmt.Fprintln(cmd.OutOrStdout(), recordValue(session.Store.Metadata(), key))
				return nil
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			value, err := cfg.Get(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one configuration value",
		Long: `Set writes config file keys to the config file. The keys
auto_save_enabled, auto_save_interval_ms, backup_retention_count and
migration_completed are stored in the save directory's metadata.json.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			if slices.Contains(recordKeys, key) {
				update, err := parseRecordUpdate(key, value)
				if err != nil {
					return err
				}

				session, err := opts.openSession(cmd)
				if err != nil {
					return err
				}
				defer func() {
					_ = session.Close()
				}()

				if err := session.Store.UpdateConfiguration(update); err != nil {
					return fmt.Errorf("failed to update %s: %w", key, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, value, session.Store.Path())
				return nil
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Set(key, value); err != nil {
				return err
			}
			path := opts.resolvedConfigPath()
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, value, path)
			return nil
		},
	}
}

func recordValue(rec *metadata.Record, key string) string {
	switch key {
	case "auto_save_enabled":
		return strconv.FormatBool(rec.AutoSaveEnabled)
	case "auto_save_interval_ms":
		return strconv.FormatInt(rec.AutoSaveIntervalMs, 10)
	case "backup_retention_count":
		return strconv.Itoa(rec.BackupRetentionCount)
	case "migration_completed":
		return strconv.FormatBool(rec.MigrationCompleted)
	default:
		return ""
	}
}

func parseRecordUpdate(key, value string) (metadata.ConfigUpdate, error) {
	var update metadata.ConfigUpdate

	switch key {
	case "auto_save_enabled", "migration_completed":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return update, fmt.Errorf("%s must be true or false: %w", key, err)
		}
		if key == "auto_save_enabled" {
			update.AutoSaveEnabled = &b
		} else {
			update.MigrationCompleted = &b
		}
	case "auto_save_interval_ms":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return update, fmt.Errorf("%s must be an integer: %w", key, err)
		}
		update.AutoSaveIntervalMs = &n
	case "backup_retention_count":
		n, err := strconv.Atoi(value)
		if err != nil {
			return update, fmt.Errorf("%s must be an integer: %w", key, err)
		}
		update.BackupRetentionCount = &n
	}

	return update, nil
}
