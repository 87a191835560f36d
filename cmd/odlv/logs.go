package main

import (
	"github.com/spf13/cobra"

	"github.com/odlvideo/odlv/internal/config"
	"github.com/odlvideo/odlv/internal/logtail"
)

func newLogsCmd(flags *rootFlags) *cobra.Command {
	var (
		lines int
		color bool
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the odlv log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			tail, err := logtail.Tail(cfg.LogFile, lines)
			if err != nil {
				return err
			}
			return logtail.Render(cmd.OutOrStdout(), tail, color)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines (0 for all)")
	cmd.Flags().BoolVar(&color, "color", false, "colorize output")
	return cmd
}
