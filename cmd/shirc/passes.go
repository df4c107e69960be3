package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/shir"
	"github.com/gogpu/shir/transform"
)

func newPassesCommand(root *rootOptions) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "passes",
		Short: "List registered passes or the pipeline of a target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			if target == "" {
				for _, name := range transform.Names() {
					fmt.Fprintln(w, name)
				}
				return nil
			}

			t, err := shir.ParseTarget(target)
			if err != nil {
				return err
			}
			passes, err := transform.ForTarget(t.String())
			if err != nil {
				return err
			}
			for _, p := range passes {
				fmt.Fprintln(w, p.Name())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "print the pipeline of this target")

	return cmd
}
