// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/qiniu/x/log"
	"github.com/ulikunitz/xz"
)

// ErrUnsafePath is returned for archive entries escaping the destination.
var ErrUnsafePath = errors.New("unsafe path in archive")

// decompressor opens the decompressed stream of an archive by extension.
func decompressor(name string, r io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return pgzip.NewReader(r)
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case strings.HasSuffix(name, ".tar.zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case strings.HasSuffix(name, ".tar"):
		return io.NopCloser(r), nil
	}
	return nil, fmt.Errorf("unsupported archive %s", name)
}

// Unpack extracts the tarball archive into dest. When every entry lives
// under one top-level directory, as in release tarballs, that directory is
// stripped.
func Unpack(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	strip, err := commonRoot(archive, f)
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	log.Debugf("source: unpacking %s to %s (strip %q)", archive, dest, strip)

	rc, err := decompressor(archive, f)
	if err != nil {
		return err
	}
	defer rc.Close()

	tr := tar.NewReader(rc)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		rel := stripRoot(hdr.Name, strip)
		if rel == "" {
			continue
		}
		target, err := safeJoin(dest, rel)
		if err != nil {
			return err
		}
		if err := checkParents(dest, rel); err != nil {
			return err
		}
		if err := extract(tr, hdr, rel, target); err != nil {
			return err
		}
	}
}

func extract(tr *tar.Reader, hdr *tar.Header, rel, target string) error {
	mode := hdr.FileInfo().Mode().Perm()
	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, mode|0o700)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := removeLink(target); err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	case tar.TypeSymlink:
		resolved := path.Join(path.Dir(rel), hdr.Linkname)
		if path.IsAbs(hdr.Linkname) || !filepath.IsLocal(filepath.FromSlash(resolved)) {
			return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, hdr.Name, hdr.Linkname)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return os.Symlink(hdr.Linkname, target)
	}
	log.Debugf("source: skipping %s (type %c)", hdr.Name, hdr.Typeflag)
	return nil
}

// commonRoot returns the single top-level directory shared by every entry
// of the archive, or "".
func commonRoot(name string, r io.Reader) (string, error) {
	rc, err := decompressor(name, r)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	root := ""
	tr := tar.NewReader(rc)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return root, nil
		}
		if err != nil {
			return "", err
		}
		clean := strings.TrimPrefix(path.Clean(hdr.Name), "./")
		first, rest, nested := strings.Cut(clean, "/")
		if !nested && hdr.Typeflag != tar.TypeDir {
			return "", nil
		}
		if first == "pax_global_header" && rest == "" {
			continue
		}
		if root == "" {
			root = first
		} else if root != first {
			return "", nil
		}
	}
}

func stripRoot(name, root string) string {
	clean := strings.TrimPrefix(path.Clean(name), "./")
	if root == "" {
		return clean
	}
	if clean == root {
		return ""
	}
	return strings.TrimPrefix(clean, root+"/")
}

// checkParents refuses rel when a directory on its way under dest is a
// symlink, so nothing is ever written through a link extracted earlier.
func checkParents(dest, rel string) error {
	dir := dest
	for _, elem := range strings.Split(path.Dir(rel), "/") {
		if elem == "." {
			return nil
		}
		dir = filepath.Join(dir, elem)
		fi, err := os.Lstat(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if fi.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s crosses link %s", ErrUnsafePath, rel, dir)
		}
	}
	return nil
}

// removeLink removes target if it is a symlink.
func removeLink(target string) error {
	fi, err := os.Lstat(target)
	if err != nil || fi.Mode()&fs.ModeSymlink == 0 {
		return nil
	}
	return os.Remove(target)
}

// safeJoin joins rel to dest, refusing paths that leave dest.
func safeJoin(dest, rel string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, rel)
	}
	return filepath.Join(dest, filepath.FromSlash(rel)), nil
}
