package main

import (
	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
)

func (c *cli) buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write the whole site as static files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := siteConfig(c.v)
			if err != nil {
				return err
			}
			app := spacetraveling.New(cfg,
				spacetraveling.WithLogger(c.log),
				spacetraveling.WithStaticDir(c.v.GetString("server.static_dir")),
			)
			defer app.Close()

			opts := buildOptions(c.v)
			report, err := app.Build(cmd.Context(), opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			writeLine(out, "Built %d list pages and %d posts into %s", report.Pages, report.Posts, opts.OutputDir)
			if report.Banners > 0 {
				writeLine(out, "Localized %d banners", report.Banners)
			}
			for _, uid := range report.Skipped {
				writeLine(out, "  skipped %q", uid)
			}
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "", "output directory (default dist)")
	cmd.Flags().Bool("clean", false, "remove the output directory first")
	cmd.Flags().Bool("localize-images", false, "download and resize post banners")
	return cmd
}
