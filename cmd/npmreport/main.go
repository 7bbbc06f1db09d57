package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/lerenn/npmreport/pkg/config"
	"github.com/lerenn/npmreport/pkg/inspect"
	"github.com/lerenn/npmreport/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	format     string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "npmreport",
		Short:         "Npmreport decodes npm outdated and audit JSON reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/npmreport.yaml", "Path to the config file")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "", "Output format (text or json), overrides the config")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "outdated [file|-]...",
		Short: "Decode `npm outdated --json` reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, i, err := setup()
			if err != nil {
				return err
			}
			results, err := i.OutdatedFiles(cmd.Context(), args)
			if err != nil {
				return err
			}
			return inspect.RenderOutdated(cmd.OutOrStdout(), cfg.Output.Format, results)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "audit [file|-]...",
		Short: "Decode `npm audit --json` reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, i, err := setup()
			if err != nil {
				return err
			}
			results, err := i.AuditFiles(cmd.Context(), args)
			if err != nil {
				return err
			}
			return inspect.RenderAudit(cmd.OutOrStdout(), cfg.Output.Format, results)
		},
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logging.L().Error("Command execution failed", zap.Error(err))
		os.Exit(1)
	}
}

func setup() (*config.Config, *inspect.Inspector, error) {
	// NPMREPORT_* overrides may come from a local .env file.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if format != "" {
		cfg.Output.Format = format
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	if err := logging.Init(cfg.Log.Level); err != nil {
		return nil, nil, err
	}

	i, err := inspect.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, i, nil
}
