package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/gogpu/shir"
)

func newValidateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <input>...",
		Short: "Check that modules are well formed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args)
		},
	}
}

func runValidate(cmd *cobra.Command, inputs []string) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(cmd.Context(), "shirc: validate", "inputs", len(inputs))
	defer tr.Finish("err", &err)

	w := cmd.OutOrStdout()
	failed := 0

	for _, input := range inputs {
		if err := validateFile(cmd, input); err != nil {
			fmt.Fprintf(w, "%s: %v\n", input, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "%s: ok\n", input)
	}

	if failed != 0 {
		return errors.New("%d of %d modules are invalid", failed, len(inputs))
	}
	return nil
}

func validateFile(cmd *cobra.Command, input string) error {
	src, err := readInput(cmd, input)
	if err != nil {
		return err
	}

	m, err := shir.Parse(string(src))
	if err != nil {
		return err
	}

	return shir.Validate(m)
}
