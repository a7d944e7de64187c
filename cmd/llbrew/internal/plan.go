package internal

import (
	"github.com/goplus/llbrew/internal/compiler"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var planRaw bool

var planCmd = &cobra.Command{
	Use:   "plan FORMULA [TOGGLE...]",
	Short: "Print the build plan of a formula",
	Long: `Plan compiles a formula for the host and prints its build plan.

Toggles follow the Homebrew syntax: NAME and no-NAME switch options,
with-NAME[=LEVEL] and without-NAME switch dependencies.`,
	Example: `  llbrew plan macvim with-python3 custom-icons
  llbrew plan macvim --env snapshot.yml without-cscope`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planRaw, "raw", false, "Print one step per line without styling")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	desc, req, err := load(args)
	if err != nil {
		return err
	}
	host, err := hostEnv()
	if err != nil {
		return err
	}
	plan, err := compiler.Compile(desc, req, host)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if planRaw {
		for _, w := range plan.Warnings {
			log.Warnf("%s: %s", desc.Name, w)
		}
		_, err = out.Write([]byte(plan.String()))
		return err
	}
	return newRenderer(out).plan(plan)
}
