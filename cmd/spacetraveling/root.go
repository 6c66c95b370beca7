package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

// cli carries the state shared by subcommands once the config is loaded.
type cli struct {
	cfgFile string
	v       *viper.Viper
	log     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "spacetraveling",
		Short: "A blog front-end for a headless CMS",
		Long: `spacetraveling renders posts from a headless CMS as a blog: a paginated
post list with load-more, post pages with previous/next navigation and
comments, an RSS feed and a sitemap. It runs as a server or writes the
whole site out as static files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.initializeConfig(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is ./spacetraveling.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(c.serveCmd(), c.buildCmd(), c.initCmd(), versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spacetraveling %s (%s)\n", Version, Commit)
		},
	}
}

func (c *cli) initializeConfig(cmd *cobra.Command) error {
	v, err := loadConfig(c.cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(cmd, v); err != nil {
		return err
	}
	logger, err := newLogger(v.GetString("log.level"), v.GetString("log.format"), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	c.v = v
	c.log = logger
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug().Str("file", used).Msg("using config file")
	}
	return nil
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"log-level":       "log.level",
	"addr":            "server.addr",
	"out":             "build.output_dir",
	"clean":           "build.clean",
	"localize-images": "build.localize_images",
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}
