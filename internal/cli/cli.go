package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/modelopt/internal/app"
	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/framework"
	"github.com/specialistvlad/modelopt/internal/version"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// parsed is what the command tree leaves behind after Execute.
type parsed struct {
	cmd        *cobra.Command
	preset     framework.Framework
	configPath string
}

// newRootCmd builds `mo` and one subcommand per framework. Every flag is
// persistent so subcommands accept the full option set.
func newRootCmd(flags *config.Options, out *parsed) *cobra.Command {
	root := &cobra.Command{
		Use:           "mo",
		Short:         "Model Optimizer: convert a trained model into the intermediate representation",
		Version:       version.String(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out.cmd = cmd
			return nil
		},
	}
	root.PersistentFlags().StringVar(&out.configPath, "config", "", "YAML options file. Flags given on the command line override its values.")
	bindFlags(root, flags)

	for _, fw := range framework.All {
		root.AddCommand(&cobra.Command{
			Use:   fw.String(),
			Short: fmt.Sprintf("Convert a %s model", fw.Title()),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				out.cmd = cmd
				out.preset = fw
				return nil
			},
		})
	}
	return root
}

// Parse processes command-line arguments. It returns the populated options,
// a boolean indicating if the program should exit cleanly (help or version
// was printed), or an ExitError.
func Parse(args []string, output io.Writer) (*config.Options, bool, error) {
	flags := config.Defaults()
	var p parsed
	root := newRootCmd(&flags, &p)
	root.SetArgs(args)
	root.SetOut(output)
	root.SetErr(output)

	if err := root.Execute(); err != nil {
		return nil, false, usageError("%v", err)
	}
	if p.cmd == nil {
		return nil, true, nil
	}

	o := config.Defaults()
	if p.configPath != "" {
		if err := config.LoadFile(p.configPath, &o); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, false, usageError("Options file %s was not found", p.configPath)
			}
			return nil, false, usageError("%v", err)
		}
	}
	var changed []string
	for _, name := range config.Names() {
		if p.cmd.Flags().Changed(name) {
			changed = append(changed, name)
		}
	}
	o.CopyFrom(&flags, changed...)

	if p.preset != framework.Unknown {
		if o.Framework != "" && o.Framework != p.preset.String() {
			return nil, false, usageError("--framework %s conflicts with the %s command", o.Framework, p.preset)
		}
		o.Framework = p.preset.String()
	}
	if _, err := app.ParseLogLevel(o.LogLevel); err != nil {
		return nil, false, usageError("%v", err)
	}
	o.LogFormat = strings.ToLower(o.LogFormat)
	if o.LogFormat != "text" && o.LogFormat != "json" {
		return nil, false, usageError("invalid log_format: must be 'text' or 'json'")
	}
	o.GenerateExperimentalIRV10 = !o.GenerateDeprecatedIRV7

	return &o, false, nil
}
