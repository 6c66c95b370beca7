package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
)

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog over HTTP",
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := app.Run(ctx); err != nil {
				c.log.Error().Err(err).Msg("server stopped")
				return err
			}
			c.log.Info().Msg("server stopped")
			return nil
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :3000)")
	return cmd
}
