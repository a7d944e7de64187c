package internal

import (
	"context"
	"fmt"

	"github.com/goplus/llbrew/internal/build"
	"github.com/goplus/llbrew/internal/compiler"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var (
	installDryRun bool
	installForce  bool
)

var installCmd = &cobra.Command{
	Use:   "install FORMULA ARCHIVE [TOGGLE...]",
	Short: "Build a formula from a source archive and install it",
	Long: `Install verifies ARCHIVE against the checksum of the formula, unpacks it
into the workspace and carries out the build plan there. A plan that was
already built into an existing keg is not built again.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installDryRun, "dry-run", "n", false, "Log the steps without running them")
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "Rebuild even if the plan was built before")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	archive := args[1]
	desc, req, err := load(append([]string{args[0]}, args[2:]...))
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
	for _, w := range plan.Warnings {
		log.Warnf("%s: %s", desc.Name, w)
	}

	builder, err := build.NewBuilder(build.Options{
		WorkspaceDir: workspaceDir,
		DryRun:       installDryRun,
		Force:        installForce,
		Stdout:       cmd.OutOrStdout(),
		Stderr:       cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := builder.Build(ctx, desc, plan, archive)
	if err != nil {
		return fmt.Errorf("failed to build %s %s: %w", desc.Name, desc.Version, err)
	}
	log.Debugf("%s: digest %s, source %s", desc.Name, res.Digest, res.SourceDir)

	text, err := compiler.Caveats(desc, req, host)
	if err != nil {
		return err
	}
	if text != "" {
		return newRenderer(cmd.OutOrStdout()).caveats(text)
	}
	return nil
}
