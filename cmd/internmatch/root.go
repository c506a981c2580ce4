package main

import (
	"github.com/spf13/cobra"

	"github.com/khoahotran/internmatch-client/internal/config"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

var (
	configDir string

	cfg     config.Config
	log     logger.Logger
	current *app

	rootCmd = &cobra.Command{
		Use:           "internmatch",
		Short:         "Command line client for the InternMatch profile service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadBase(); err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			current = a
			return nil
		},
	}
)

// loadBase reads the configuration and builds the logger. Commands that do not
// talk to the backend stop here.
func loadBase() error {
	var err error
	cfg, err = config.LoadConfig(configDir)
	if err != nil {
		return err
	}
	log = logger.NewZapLogger(cfg.App.Env)
	return nil
}

func cleanup() {
	if current != nil {
		current.Close()
	}
	if log != nil {
		_ = log.Sync()
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory holding config.yaml and .env")

	rootCmd.AddCommand(loginCmd, googleLoginCmd, registerCmd, passwdCmd, logoutCmd, homeCmd)
	rootCmd.AddCommand(profileCmd, devserverCmd, eventsCmd)
}
