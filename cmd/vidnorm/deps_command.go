package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidnorm/internal/deps"
	"vidnorm/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and GPU availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				detail := status.Detail
				switch {
				case detail != "":
				case status.Version != "":
					detail = status.Version
				default:
					detail = status.Description
				}
				rows = append(rows, []string{status.Name, status.Command, yesNo(status.Available), yesNo(!status.Optional), detail})
			}
			fmt.Fprintln(out, renderTable(
				[]column{{Header: "Tool"}, {Header: "Command"}, {Header: "Available"}, {Header: "Required"}, {Header: "Detail"}},
				rows,
				"",
			))

			gpu := deps.DetectGPU(cmd.Context(), cfg.NvidiaSMIBinary(), cfg.FFmpegBinary(), nil)
			switch {
			case gpu.Available && gpu.Name != "":
				fmt.Fprintln(out, renderStatusLine("GPU", statusOK, gpu.Name, colorize))
			case gpu.Available:
				fmt.Fprintln(out, renderStatusLine("GPU", statusOK, "NVENC encoder available ("+gpu.Source+")", colorize))
			default:
				fmt.Fprintln(out, renderStatusLine("GPU", statusWarn, "not detected; CPU encoding will be used", colorize))
			}

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tool(s) missing", len(missing))
			}
			return nil
		},
	}
}
