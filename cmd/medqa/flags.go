package main

import (
	"github.com/spf13/cobra"

	"github.com/zero-day-ai/medqa/cmd/medqa/internal"
)

// GlobalFlags holds global flags available to all commands
type GlobalFlags struct {
	Verbose      bool
	Quiet        bool
	OutputFormat string
	ConfigFile   string
}

// Register registers persistent flags on the root command
func (f *GlobalFlags) Register(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&f.Verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&f.Quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVarP(&f.OutputFormat, "output", "o", "text", "Output format (text|json)")
	cmd.PersistentFlags().StringVar(&f.ConfigFile, "config", "", "Path to config file (default: built-in defaults and MEDQA_* environment)")
}

// Validate checks flag combinations
func (f *GlobalFlags) Validate() error {
	if _, err := internal.ParseOutputFormat(f.OutputFormat); err != nil {
		return err
	}
	if f.Verbose && f.Quiet {
		return internal.NewCLIError(internal.ExitUsage, "--verbose and --quiet cannot be used together")
	}
	return nil
}

// Format returns the parsed output format
func (f *GlobalFlags) Format() internal.OutputFormat {
	format, err := internal.ParseOutputFormat(f.OutputFormat)
	if err != nil {
		return internal.FormatText
	}
	return format
}

// LogLevel returns the log level forced by -v or -q, or "" to use the
// configured level.
func (f *GlobalFlags) LogLevel() string {
	switch {
	case f.Verbose:
		return "debug"
	case f.Quiet:
		return "error"
	default:
		return ""
	}
}
