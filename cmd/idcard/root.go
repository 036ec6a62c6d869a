package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/idcard-api/pkg/config"
)

type rootFlags struct {
	verbose    bool
	recordsURL string
	schemePath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "idcard",
		Short:         "idcard renders your student ID card from the school records API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := "https://srpapi.iaueesp.com"
	if cfg, err := config.Load(); err == nil && cfg.Records.BaseURL != "" {
		defaultURL = cfg.Records.BaseURL
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&flags.recordsURL, "records-url", defaultURL, "Base URL of the records API")
	cmd.PersistentFlags().StringVar(&flags.schemePath, "scheme", "", "YAML file with a custom color scheme")

	cmd.AddCommand(newLoginCmd(flags))
	cmd.AddCommand(newThemesCmd())
	cmd.AddCommand(newNormalizeCmd())

	return cmd
}

func (f *rootFlags) logger() *zap.Logger {
	if !f.verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
