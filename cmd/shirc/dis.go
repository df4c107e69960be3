package main

import (
	"encoding/binary"
	"fmt"

	"github.com/spf13/cobra"
	"tlog.app/go/errors"

	"github.com/gogpu/shir"
	"github.com/gogpu/shir/ir"
	"github.com/gogpu/shir/spirv"
)

func newDisCommand(root *rootOptions) *cobra.Command {
	var lower string

	cmd := &cobra.Command{
		Use:   "dis <input>",
		Short: "Print a SPIR-V binary or IR module as text",
		Long: `Disassemble a SPIR-V binary, or print an IR module in canonical form.
With --lower the module is printed after the pipeline of the given target.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return errors.Wrap(err, "read input")
			}

			text, err := disassemble(cmd, data, lower)
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}

	cmd.Flags().StringVar(&lower, "lower", "", "run the pipeline of this target before printing an IR module")

	return cmd
}

func disassemble(cmd *cobra.Command, data []byte, lower string) (string, error) {
	if len(data) >= 4 && binary.LittleEndian.Uint32(data) == spirv.MagicNumber {
		if lower != "" {
			return "", errors.New("--lower does not apply to SPIR-V input")
		}
		return spirv.Disassemble(data)
	}

	m, err := shir.Parse(string(data))
	if err != nil {
		return "", err
	}

	if lower != "" {
		target, err := shir.ParseTarget(lower)
		if err != nil {
			return "", err
		}
		if _, err := shir.Lower(cmd.Context(), m, target, shir.DefaultOptions()); err != nil {
			return "", errors.Wrap(err, "lower")
		}
	}

	return ir.Disassemble(m), nil
}
