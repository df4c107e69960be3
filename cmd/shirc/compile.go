package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/gogpu/shir"
	"github.com/gogpu/shir/hlsl"
	"github.com/gogpu/shir/msl"
	"github.com/gogpu/shir/spirv"
	"github.com/gogpu/shir/transform"
)

type compileOptions struct {
	*rootOptions

	Target          string
	Output          string
	Config          string
	NoValidate      bool
	PrintIRAfterAll bool
	Stats           bool
	SPIRVVersion    string
	ShaderModel     string
	MSLVersion      string
}

func newCompileCommand(root *rootOptions) *cobra.Command {
	opts := &compileOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "compile <input>",
		Short: "Lower a module and generate target code",
		Long: `Parse a textual IR module, run the target pipeline over it and
write the generated code. Use "-" to read the module from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Target, "target", "t", "spirv", "output language: wgsl, hlsl, msl or spirv")
	f.StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	f.StringVarP(&opts.Config, "config", "c", "", "pipeline configuration (.yaml, .yml or .toml)")
	f.BoolVar(&opts.NoValidate, "no-validate", false, "skip validation before and between passes")
	f.BoolVar(&opts.PrintIRAfterAll, "print-ir-after-all", false, "print the module to stderr after every pass")
	f.BoolVar(&opts.Stats, "stats", false, "print pass statistics to stderr")
	f.StringVar(&opts.SPIRVVersion, "spirv-version", spirv.DefaultOptions().Version.String(), "SPIR-V version")
	f.StringVar(&opts.ShaderModel, "shader-model", hlsl.DefaultOptions().ShaderModel.ProfileSuffix(), "HLSL shader model, such as 5_1 or 6.2")
	f.StringVar(&opts.MSLVersion, "msl-version", msl.DefaultOptions().LangVersion.String(), "MSL language version")

	return cmd
}

func runCompile(cmd *cobra.Command, opts *compileOptions, input string) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(cmd.Context(), "shirc: compile", "input", input, "target", opts.Target)
	defer tr.Finish("err", &err)

	target, err := shir.ParseTarget(opts.Target)
	if err != nil {
		return err
	}

	copts, err := opts.shirOptions()
	if err != nil {
		return err
	}

	src, err := readInput(cmd, input)
	if err != nil {
		return errors.Wrap(err, "read input")
	}

	m, err := shir.Parse(string(src))
	if err != nil {
		return err
	}

	report, err := shir.Lower(ctx, m, target, copts)
	if report != nil {
		printReport(cmd, opts, report)
	}
	if err != nil {
		return errors.Wrap(err, "lower")
	}

	out, err := shir.Generate(m, target, copts)
	if err != nil {
		return errors.Wrap(err, "generate %v", target)
	}

	if opts.Output == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}

	if err := os.WriteFile(opts.Output, out, 0o644); err != nil { //nolint:gosec // G306: generated shaders are not secret
		return errors.Wrap(err, "write output")
	}

	tr.Printw("written", "output", opts.Output, "size", len(out))

	return nil
}

func (opts *compileOptions) shirOptions() (shir.Options, error) {
	copts := shir.DefaultOptions()
	copts.SkipValidation = opts.NoValidate
	copts.PrintIRAfterAll = opts.PrintIRAfterAll

	if opts.Config != "" {
		cfg, err := transform.LoadConfig(opts.Config)
		if err != nil {
			return copts, err
		}
		cfg.NoValidate = cfg.NoValidate || opts.NoValidate
		cfg.PrintIRAfterAll = cfg.PrintIRAfterAll || opts.PrintIRAfterAll
		copts.Pipeline = cfg
	}

	var ok bool
	if copts.SPIRV.Version, ok = spirv.ParseVersion(opts.SPIRVVersion); !ok {
		return copts, errors.New("bad SPIR-V version %q", opts.SPIRVVersion)
	}
	if copts.HLSL.ShaderModel, ok = hlsl.ParseShaderModel(opts.ShaderModel); !ok {
		return copts, errors.New("bad shader model %q", opts.ShaderModel)
	}
	if copts.MSL.LangVersion, ok = msl.ParseVersion(opts.MSLVersion); !ok {
		return copts, errors.New("bad MSL version %q", opts.MSLVersion)
	}

	return copts, nil
}

func printReport(cmd *cobra.Command, opts *compileOptions, report *transform.Report) {
	w := cmd.ErrOrStderr()
	for _, p := range report.Passes {
		if opts.Stats {
			fmt.Fprintf(w, "%-20s %6d -> %-6d %v\n", p.Name, p.InstructionsBefore, p.InstructionsAfter, p.Duration)
		}
		if p.IR != "" {
			fmt.Fprintf(w, "; after %s\n%s\n", p.Name, p.IR)
		}
	}
}
