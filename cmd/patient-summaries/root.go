package main

import (
	"github.com/spf13/cobra"

	"github.com/patient-summaries/internal/config"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:           "patient-summaries",
		Short:         "Reconcile marker, copy number and sequence variant tables into per-visit patient summaries",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, outDir)
		},
	}

	cmd.Flags().StringVar(&configPath, "config_path", config.DefaultConfigPath, "path to the JSON config file")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (overrides paths.out)")
	return cmd
}
