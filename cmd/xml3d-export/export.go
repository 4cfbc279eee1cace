package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/xml3d-exporter/internal/config"
	"github.com/Faultbox/xml3d-exporter/internal/exporter"
	"github.com/Faultbox/xml3d-exporter/internal/logger"
	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
	"github.com/Faultbox/xml3d-exporter/pkg/scenefile"
)

// configFlags registers the config overrides on cmd.
func configFlags(cmd *cobra.Command) *config.Flags {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	cmd.Flags().AddGoFlagSet(fs)
	return flags
}

// setup loads the configuration and starts logging.
func setup(flags *config.Flags) (*config.Config, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)
	return cfg, nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <scene>",
		Short: "Export a scene file",
		Args:  cobra.ExactArgs(1),
	}
	flags := configFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(flags)
		if err != nil {
			return err
		}
		defer logger.Sync()

		rep, err := exportFile(cfg, args[0])
		if err != nil {
			logger.Error("export failed", zap.String("scene", args[0]), zap.Error(err))
			return err
		}
		printSummary(cmd.OutOrStdout(), cfg.Export.Output, rep)
		return nil
	}
	return cmd
}

// exportFile loads the scene at path and exports it with cfg.
func exportFile(cfg *config.Config, path string) (*report.Report, error) {
	sc, err := scenefile.Load(path)
	if err != nil {
		return nil, err
	}
	return exporter.Run(cfg, sc, scene.StaticEvaluator{})
}

func printSummary(w io.Writer, output string, rep *report.Report) {
	fmt.Fprintf(w, "Exported: %s\n", output)
	fmt.Fprintf(w, "Assets:   %d\n", len(rep.Assets))
	fmt.Fprintf(w, "Meshes:   %d\n", len(rep.Meshes))
	fmt.Fprintf(w, "Warnings: %d\n", len(rep.Warnings))
}
