// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package walker enumerates the files under a set of scan roots.
package walker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cardsearch/internal/paths"

	"github.com/spf13/afero"
)

// SkipFile may be returned by a visit func to pass over a file without
// stopping the walk.
var SkipFile = errors.New("skip this file")

// DirectoryAccessError reports a root or directory that could not be
// examined. Its subtree is skipped and the walk continues.
type DirectoryAccessError struct {
	Path string
	Op   string // "stat" or "list"
	Err  error
}

func (e *DirectoryAccessError) Error() string {
	return fmt.Sprintf("cannot %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DirectoryAccessError) Unwrap() error {
	return e.Err
}

// Walker visits every eligible regular file under its roots, depth first
// and in name order.
type Walker struct {
	Fs        afero.Fs
	Whitelist *Whitelist

	// OnError receives each *DirectoryAccessError. Nil discards them.
	OnError func(err error)
}

// New returns a walker over fs.
func New(fs afero.Fs, whitelist *Whitelist) *Walker {
	return &Walker{Fs: fs, Whitelist: whitelist}
}

// Walk visits the files under roots. Symbolic links to regular files are
// followed; symbolic links to directories, devices, fifos and sockets are
// not. visit returning SkipFile is ignored; any other error stops the walk
// and is returned. Cancellation is checked before every entry.
func (w *Walker) Walk(ctx context.Context, roots []string, visit func(path string) error) error {
	resolved, err := UniqueRoots(roots)
	if err != nil {
		return err
	}

	for _, root := range resolved {
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := w.lstat(root)
		if err != nil {
			w.report(&DirectoryAccessError{Path: root, Op: "stat", Err: err})
			continue
		}
		if err := w.walkEntry(ctx, root, info, visit); err != nil {
			return err
		}
	}

	return nil
}

// UniqueRoots makes every root absolute and cleaned and drops repeats,
// keeping the first occurrence.
func UniqueRoots(roots []string) ([]string, error) {
	seen := make(map[string]struct{}, len(roots))
	out := make([]string, 0, len(roots))

	for _, root := range roots {
		abs, err := paths.ResolvePath(root)
		if err != nil {
			return nil, err
		}
		if abs == "" {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}

	return out, nil
}

func (w *Walker) walkEntry(ctx context.Context, path string, info os.FileInfo, visit func(string) error) error {
	if w.Whitelist.ExcludesPath(path) {
		return nil
	}

	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		target, err := w.Fs.Stat(path)
		if err != nil || !target.Mode().IsRegular() {
			// dangling, or a link to a directory or special file
			return nil
		}
		return w.visitFile(path, visit)

	case mode.IsRegular():
		return w.visitFile(path, visit)

	case mode.IsDir():
		return w.walkDir(ctx, path, visit)
	}

	return nil
}

func (w *Walker) visitFile(path string, visit func(string) error) error {
	if w.Whitelist.ExcludesExtension(path) {
		return nil
	}
	if err := visit(path); err != nil && !errors.Is(err, SkipFile) {
		return err
	}
	return nil
}

func (w *Walker) walkDir(ctx context.Context, dir string, visit func(string) error) error {
	entries, err := afero.ReadDir(w.Fs, dir)
	if err != nil {
		w.report(&DirectoryAccessError{Path: dir, Op: "list", Err: err})
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.walkEntry(ctx, filepath.Join(dir, entry.Name()), entry, visit); err != nil {
			return err
		}
	}

	return nil
}

func (w *Walker) lstat(path string) (os.FileInfo, error) {
	if l, ok := w.Fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return w.Fs.Stat(path)
}

func (w *Walker) report(err error) {
	if w.OnError != nil {
		w.OnError(err)
	}
}
