// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package source verifies and unpacks formula source archives.
package source

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"lukechampine.com/blake3"
)

// ErrChecksumMismatch is returned when an archive does not match the
// checksum of its formula.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// newHash returns the hash named by a checksum prefix. Without a prefix
// the algorithm is inferred from the digest length.
func newHash(checksum string) (h hash.Hash, digest string, err error) {
	algo, digest, ok := strings.Cut(checksum, ":")
	if !ok {
		digest = checksum
		switch len(digest) {
		case 2 * sha1.Size:
			algo = "sha1"
		case 2 * sha256.Size:
			algo = "sha256"
		default:
			return nil, "", fmt.Errorf("cannot infer algorithm of checksum %q", checksum)
		}
	}
	switch strings.ToLower(algo) {
	case "sha1":
		return sha1.New(), digest, nil
	case "sha256":
		return sha256.New(), digest, nil
	case "blake3":
		return blake3.New(32, nil), digest, nil
	}
	return nil, "", fmt.Errorf("unsupported checksum algorithm %q", algo)
}

// Verify reads r to the end and compares its digest with checksum, given as
// "algo:hex" with algo one of sha1, sha256 or blake3, or as bare hex.
func Verify(r io.Reader, checksum string) error {
	h, want, err := newHash(checksum)
	if err != nil {
		return err
	}
	if _, err := io.Copy(h, r); err != nil {
		return err
	}
	got := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, got, want)
	}
	return nil
}

// VerifyFile verifies the file at path against checksum.
func VerifyFile(path, checksum string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Verify(f, checksum); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
