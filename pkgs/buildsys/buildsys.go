package buildsys

import (
	"context"
	"fmt"

	"github.com/qiniu/x/log"
)

// BuildSystem captures the primitives an executor needs to carry out a
// plan (Autotools, dry runs, etc). Paths other than install destinations
// are relative to the source tree.
type BuildSystem interface {
	// Basic paths.
	Source(dir string)

	// Environment helper.
	Env(op EnvOp, key, val string)

	// Lifecycle.
	Configure(script string, args ...string) error
	Run(dir string, args ...string) error
	Patch(step ReplaceInFile) error
	Install(src, dst string) error
	Link(target, link string) error
}

// Run executes the steps of plan on bs strictly in order and stops at the
// first failure. AppendFlag steps are collected and handed to the next
// RunConfigure.
func Run(ctx context.Context, bs BuildSystem, plan *Plan) error {
	var flags []string
	for i, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Debugf("%s: step %d/%d: %s", plan.Name, i+1, len(plan.Steps), step)

		var err error
		switch s := step.(type) {
		case SetEnvVar:
			op := s.Op
			if op == "" {
				op = EnvSet
			}
			bs.Env(op, s.Key, s.Value)
		case AppendFlag:
			flags = append(flags, s.Flag)
		case RunConfigure:
			err = bs.Configure(s.Script, flags...)
			flags = nil
		case RunTool:
			err = bs.Run(s.Dir, s.Args...)
		case ReplaceInFile:
			err = bs.Patch(s)
		case InstallPath:
			err = bs.Install(s.Src, s.Dst)
		case CreateLink:
			err = bs.Link(s.Target, s.Link)
		default:
			err = fmt.Errorf("unknown step %T", step)
		}
		if err != nil {
			return fmt.Errorf("%s: step %d (%s): %w", plan.Name, i+1, step.Kind(), err)
		}
	}
	if len(flags) > 0 {
		return fmt.Errorf("%s: %d flags appended after the last configure step", plan.Name, len(flags))
	}
	return nil
}
