package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/cheetah/internal/app"
)

const (
	flagConfig      = "config"
	flagListen      = "listen"
	flagLogLevel    = "log-level"
	flagLogFormat   = "log-format"
	flagTrace       = "trace"
	flagMaxSessions = "max-sessions"
)

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve register and unregister commands",
		Long: `Serve reads one JSON command per line and writes resolver diagnostics
and debounced events back to the caller.

Commands are read from stdin unless --listen selects the websocket transport.`,
		Args: cobra.NoArgs,
		RunE: c.runServe,
	}
	serveFlags(cmd)
	return cmd
}

func serveFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(flagConfig, "c", "", "Path to a YAML config file")
	cmd.Flags().StringP(flagListen, "l", "", "Serve websocket callers on this address instead of stdio")
	cmd.Flags().String(flagLogLevel, "", "Log level: debug, info, warn or error")
	cmd.Flags().String(flagLogFormat, "", "Log format: auto, pretty or json")
	cmd.Flags().Bool(flagTrace, false, "Log a span for every registrar operation")
	cmd.Flags().Int(flagMaxSessions, 0, "Maximum concurrent sessions per connection (0 is unlimited)")
}

// runServe only overrides configuration values whose flags were set.
func (c *CLI) runServe(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	opts := app.ServeOptions{}
	opts.ConfigPath, _ = flags.GetString(flagConfig)

	if flags.Changed(flagListen) {
		v, _ := flags.GetString(flagListen)
		opts.Listen = &v
	}
	if flags.Changed(flagLogLevel) {
		v, _ := flags.GetString(flagLogLevel)
		opts.LogLevel = &v
	}
	if flags.Changed(flagLogFormat) {
		v, _ := flags.GetString(flagLogFormat)
		opts.LogFormat = &v
	}
	if flags.Changed(flagTrace) {
		v, _ := flags.GetBool(flagTrace)
		opts.Trace = &v
	}
	if flags.Changed(flagMaxSessions) {
		v, _ := flags.GetInt(flagMaxSessions)
		opts.MaxSessions = &v
	}

	return c.app.Serve(cmd.Context(), opts)
}
