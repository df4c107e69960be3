// Command shirc compiles shader IR modules.
//
// Usage:
//
//	shirc compile -t spirv -o shader.spv shader.shir
//	shirc validate shader.shir
//	shirc passes -t hlsl
//	shirc dis shader.spv
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"tlog.app/go/tlog"
)

// rootOptions holds the global flags.
type rootOptions struct {
	Verbose bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "shirc: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "shirc",
		Short: "shader IR compiler",
		Long: `shirc lowers shader IR modules to WGSL, HLSL, MSL or SPIR-V.

Modules are read in the textual IR form. Every target has a pass
pipeline that runs before code generation; it can be replaced with a
YAML or TOML pipeline configuration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			span := tlog.Span{}
			if opts.Verbose {
				span = newLogger(cmd.ErrOrStderr()).Root()
			}
			cmd.SetContext(tlog.ContextWithSpan(cmd.Context(), span))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log pipeline spans to stderr")

	cmd.AddCommand(newCompileCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newPassesCommand(opts))
	cmd.AddCommand(newDisCommand(opts))

	return cmd
}

func newLogger(w io.Writer) *tlog.Logger {
	return tlog.New(tlog.NewConsoleWriter(w, tlog.LstdFlags))
}

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
