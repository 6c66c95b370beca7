package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling/scaffold"
)

func (c *cli) initCmd() *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a starter configuration in dir (default .)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			created, err := scaffold.Write(dir, scaffold.Data{
				SiteName:    scaffold.Title(filepath.Base(abs)),
				SiteURL:     c.v.GetString("site.url"),
				CMSEndpoint: endpoint,
				Locale:      c.v.GetString("site.locale"),
			})
			out := cmd.OutOrStdout()
			for _, path := range created {
				writeLine(out, "  created %s", path)
			}
			if err != nil {
				return err
			}
			writeLine(out, "\nEdit spacetraveling.yaml, then run 'spacetraveling serve'.")
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "CMS API endpoint, e.g. https://repo.cdn.prismic.io/api/v2")
	return cmd
}
