package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Catalog string // path to a catalog file (YAML, CUE, or SQLite)

	log *logrus.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the relscope CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{log: logrus.New()}

	cmd := &cobra.Command{
		Use:   "relscope",
		Short: "relscope - relational scope validator",
		Long:  "Validates query trees against a catalog: name resolution, row types, monotonicity.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.log.SetOutput(cmd.ErrOrStderr())
			opts.log.SetLevel(logrus.WarnLevel)
			if opts.Verbose {
				opts.log.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "catalog file (.yaml, .cue, or .db)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
