// Package cli wires config, logging and the frontends into cobra commands.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jewelry-identifier/api/internal/config"
	"jewelry-identifier/api/internal/logging"
)

// app carries what PersistentPreRunE prepared for the subcommands.
type app struct {
	cfgFile string
	verbose bool

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:     "jewelry-identifier",
		Short:   "Identify jewelry from a photo",
		Version: version,
		Long: `jewelry-identifier sends a jewelry photo to a vision model and shows a
structured report: identification, gemstone and metal details, craftsmanship,
value and care.

It runs as a web app (serve), a Telegram bot (bot) or one-shot from the shell
(analyze, format).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newServeCommand(a))
	root.AddCommand(newBotCommand(a))
	root.AddCommand(newAnalyzeCommand(a))
	root.AddCommand(newFormatCommand())
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}
