package main

import (
	"fmt"
	"strings"

	"github.com/born-ml/opcheck/internal/opcheck"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the cases of the selected operator suites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			cases, err := selectCases(cfg)
			if err != nil {
				return err
			}
			t := newTable("OP", "CASE", "INPUTS", "MODES", "GRAD")
			for _, tc := range cases {
				t.Row(false, tc.Op(), tc.Name(), describeInputs(tc), describeModes(tc), describeGrad(tc))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t)
			return err
		},
	}
}

func describeInputs(tc opcheck.Case) string {
	names := tc.Fixture.InputNames()
	parts := make([]string, 0, len(names))
	for _, name := range names {
		dtype := tc.Fixture.Inputs[name].DType()
		parts = append(parts, fmt.Sprintf("%s:%s%s", name, dtype, tc.Fixture.DeclaredShape(name)))
	}
	if len(parts) > 3 {
		parts = append(parts[:3], fmt.Sprintf("+%d", len(names)-3))
	}
	return strings.Join(parts, " ")
}

func describeModes(tc opcheck.Case) string {
	modes := tc.Modes
	if len(modes) == 0 {
		modes = opcheck.AllModes
	}
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.String()
	}
	return strings.Join(names, ",")
}

func describeGrad(tc opcheck.Case) string {
	if tc.Grad == nil {
		return "-"
	}
	return strings.Join(tc.Grad.Inputs, ",")
}
