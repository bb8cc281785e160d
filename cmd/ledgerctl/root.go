package main

import (
	"ledgerdesk/internal/app"
	"ledgerdesk/internal/config"
	"ledgerdesk/internal/logger"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

// session carries the app opened by the root command's pre-run
type session struct {
	ephemeral bool
	app       *app.App
}

func newRootCmd() *cobra.Command {
	s := &session{}

	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Administer the ledgerdesk catalog, invoices and reports",
		Long: `ledgerctl works on the same storage as the API server, selected by
STORAGE_DRIVER (file, postgres or memory) and DATA_DIR / DB_* variables.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "token" {
				return nil
			}
			return s.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if s.app == nil {
				return nil
			}
			return s.app.Close()
		},
	}
	rootCmd.PersistentFlags().BoolVar(&s.ephemeral, "ephemeral", false, "Use in-memory storage; nothing is saved")

	rootCmd.AddCommand(
		newSeedCmd(s),
		newProductsCmd(s),
		newInvoicesCmd(s),
		newReportCmd(s),
		newTokenCmd(),
	)
	return rootCmd
}

func (s *session) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if s.ephemeral {
		cfg.StorageDriver = config.StorageMemory
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	s.app = a
	return nil
}
