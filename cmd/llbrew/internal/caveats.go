package internal

import (
	"fmt"

	"github.com/goplus/llbrew/internal/compiler"
	"github.com/spf13/cobra"
)

var caveatsCmd = &cobra.Command{
	Use:   "caveats FORMULA [TOGGLE...]",
	Short: "Print the post-install notes of a formula",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCaveats,
}

func init() {
	rootCmd.AddCommand(caveatsCmd)
}

func runCaveats(cmd *cobra.Command, args []string) error {
	desc, req, err := load(args)
	if err != nil {
		return err
	}
	host, err := hostEnv()
	if err != nil {
		return err
	}
	text, err := compiler.Caveats(desc, req, host)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), text)
	return err
}
