package internal

import (
	"fmt"

	"github.com/goplus/llbrew/internal/compiler"
	"github.com/spf13/cobra"
)

var matrixCmd = &cobra.Command{
	Use:   "matrix FORMULA",
	Short: "Compile every toggle combination of a formula",
	Long: `Matrix compiles a formula once for every combination of its options and
non-required dependencies and reports which combinations the host can build.`,
	Args: cobra.ExactArgs(1),
	RunE: runMatrix,
}

func init() {
	rootCmd.AddCommand(matrixCmd)
}

func runMatrix(cmd *cobra.Command, args []string) error {
	desc, _, err := load(args)
	if err != nil {
		return err
	}
	host, err := hostEnv()
	if err != nil {
		return err
	}
	m := desc.Matrix()
	r := newRenderer(cmd.OutOrStdout())
	failed := 0
	for _, req := range m.Combinations() {
		_, err := compiler.Compile(desc, req, host)
		if err != nil {
			failed++
		}
		r.combination(req.String(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d combinations, %d rejected\n", m.CombinationCount(), failed)
	return nil
}
