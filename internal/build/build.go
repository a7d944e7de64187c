// Package build carries out compiled plans on unpacked source trees and
// remembers which plans were already built.
package build

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goplus/llbrew/formula"
	"github.com/goplus/llbrew/internal/env"
	"github.com/goplus/llbrew/internal/source"
	"github.com/goplus/llbrew/pkgs/buildsys"
	"github.com/goplus/llbrew/x/autotools"
	"github.com/qiniu/x/log"
	"lukechampine.com/blake3"
)

// Options configures a Builder.
type Options struct {
	// WorkspaceDir holds source trees and build caches,
	// <WorkDir>/build by default.
	WorkspaceDir string
	// DryRun only logs the steps of a plan.
	DryRun bool
	// Force rebuilds plans found in the cache.
	Force bool

	Stdout io.Writer
	Stderr io.Writer
}

type Builder struct {
	workspaceDir string
	dryRun       bool
	force        bool
	stdout       io.Writer
	stderr       io.Writer
}

// Result describes one build.
type Result struct {
	Digest    string
	SourceDir string
	Keg       string
	Cached    bool
	BuildTime time.Time
}

func NewBuilder(opts Options) (*Builder, error) {
	dir := opts.WorkspaceDir
	if dir == "" {
		workDir, err := env.WorkDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(workDir, "build")
	}
	b := &Builder{
		workspaceDir: dir,
		dryRun:       opts.DryRun,
		force:        opts.Force,
		stdout:       opts.Stdout,
		stderr:       opts.Stderr,
	}
	if b.stdout == nil {
		b.stdout = os.Stdout
	}
	if b.stderr == nil {
		b.stderr = os.Stderr
	}
	return b, nil
}

// Digest identifies a build: the plan text together with the checksum of
// the source it runs on.
func Digest(desc *formula.Descriptor, plan *buildsys.Plan) string {
	h := blake3.New(32, nil)
	fmt.Fprintf(h, "%s\n%s\n%s\n", desc.Name, desc.Version, desc.Checksum)
	io.WriteString(h, plan.String())
	return hex.EncodeToString(h.Sum(nil))
}

// Build verifies archive, unpacks it and runs plan on it. A plan already
// built into an existing keg is skipped unless Force is set.
func (b *Builder) Build(ctx context.Context, desc *formula.Descriptor, plan *buildsys.Plan, archive string) (*Result, error) {
	digest := Digest(desc, plan)
	res := &Result{
		Digest:    digest,
		SourceDir: b.sourceDir(desc.Name, desc.Version, digest),
		Keg:       kegOf(plan),
	}

	cache, err := b.loadCache(desc.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load build cache of %s: %w", desc.Name, err)
	}
	if entry, ok := cache.get(digest); ok && !b.force && isDir(entry.Keg) {
		log.Infof("%s %s: already built at %s", desc.Name, desc.Version, entry.BuildTime.Format(time.RFC3339))
		res.Keg, res.Cached, res.BuildTime = entry.Keg, true, entry.BuildTime
		return res, nil
	}

	if desc.Checksum != "" {
		if err := source.VerifyFile(archive, desc.Checksum); err != nil {
			return nil, err
		}
	}
	if err := os.RemoveAll(res.SourceDir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(res.SourceDir, 0o755); err != nil {
		return nil, err
	}
	if err := source.Unpack(archive, res.SourceDir); err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", filepath.Base(archive), err)
	}

	bs := autotools.New(res.SourceDir, b.dryRun)
	bs.Stdout = b.stdout
	bs.Stderr = b.stderr
	if err := buildsys.Run(ctx, bs, plan); err != nil {
		return nil, err
	}
	if b.dryRun {
		return res, nil
	}

	res.BuildTime = time.Now()
	cache.set(digest, &buildEntry{Keg: res.Keg, BuildTime: res.BuildTime})
	if err := b.saveCache(desc.Name, cache); err != nil {
		return nil, err
	}
	return res, nil
}

// kegOf returns the destination of the first install step.
func kegOf(plan *buildsys.Plan) string {
	if steps := plan.StepsOf(buildsys.KindInstallPath); len(steps) > 0 {
		return steps[0].(buildsys.InstallPath).Dst
	}
	return ""
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
