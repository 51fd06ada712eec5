package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/choplin/savemeta/internal/config"
	"github.com/choplin/savemeta/internal/logging"
	"github.com/choplin/savemeta/internal/usecase"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	storeDir   string
	logLevel   string
	noJournal  bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "savemeta",
		Short:         "savemeta - integrity tracking for save directories",
		Long:          "savemeta records checksums of the files in a save directory, verifies them later, and prunes entries whose files are gone.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: $SAVEMETA_CONFIG or XDG config dir)")
	cmd.PersistentFlags().StringVarP(&opts.storeDir, "dir", "d", "", "Save directory to operate on (overrides store_dir)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&opts.noJournal, "no-journal", false, "Do not record validation and reconcile runs")

	cmd.AddCommand(newRegisterCmd(opts))
	cmd.AddCommand(newUnregisterCmd(opts))
	cmd.AddCommand(newRecordLoadCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newReconcileCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newInfoCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func (o *globalOptions) resolvedConfigPath() string {
	if o.configPath != "" {
		return config.ExpandPath(o.configPath)
	}
	return config.GetConfigPath()
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.resolvedConfigPath())
}

func (o *globalOptions) logger(cmd *cobra.Command, cfg *config.Config) (zerolog.Logger, error) {
	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	return logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
}

// openSession loads configuration and opens the store the command operates on.
// The caller must Close the session.
func (o *globalOptions) openSession(cmd *cobra.Command) (*usecase.Session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := o.logger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	session, err := usecase.OpenSession(usecase.SessionOptions{
		Config:    cfg,
		Logger:    logger,
		StoreDir:  o.storeDir,
		NoJournal: o.noJournal,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return session, nil
}
