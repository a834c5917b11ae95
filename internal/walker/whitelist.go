// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package walker

import (
	"path/filepath"
	"sort"
	"strings"

	"cardsearch/internal/paths"
)

// Whitelist is the set of paths and file extensions a walk never scans.
// It is built once and only read afterwards.
type Whitelist struct {
	paths      map[string]struct{}
	extensions map[string]struct{}
}

// NewWhitelist normalises excludedPaths to absolute, cleaned paths and
// extensions to lower case without a leading dot. Empty entries are dropped.
func NewWhitelist(excludedPaths, extensions []string) (*Whitelist, error) {
	w := &Whitelist{
		paths:      make(map[string]struct{}, len(excludedPaths)),
		extensions: make(map[string]struct{}, len(extensions)),
	}

	for _, p := range excludedPaths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		abs, err := paths.ResolvePath(p)
		if err != nil {
			return nil, err
		}
		w.paths[abs] = struct{}{}
	}

	for _, ext := range extensions {
		ext = normaliseExtension(ext)
		if ext != "" {
			w.extensions[ext] = struct{}{}
		}
	}

	return w, nil
}

// DefaultWhitelist excludes the pseudo filesystems plus the given paths,
// typically the aggregate output file.
func DefaultWhitelist(extraPaths, extensions []string) (*Whitelist, error) {
	all := make([]string, 0, len(paths.PseudoFilesystems)+len(extraPaths))
	all = append(all, paths.PseudoFilesystems...)
	all = append(all, extraPaths...)
	return NewWhitelist(all, extensions)
}

func normaliseExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ExcludesPath reports whether abs or one of its ancestors is whitelisted.
// abs must already be absolute and cleaned.
func (w *Whitelist) ExcludesPath(abs string) bool {
	if w == nil || len(w.paths) == 0 {
		return false
	}

	for p := abs; ; {
		if _, ok := w.paths[p]; ok {
			return true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return false
		}
		p = parent
	}
}

// ExcludesExtension reports whether the extension of name is whitelisted.
func (w *Whitelist) ExcludesExtension(name string) bool {
	if w == nil || len(w.extensions) == 0 {
		return false
	}
	ext := normaliseExtension(filepath.Ext(name))
	if ext == "" {
		return false
	}
	_, ok := w.extensions[ext]
	return ok
}

// Paths returns the whitelisted paths in sorted order.
func (w *Whitelist) Paths() []string {
	return sortedKeys(w.paths)
}

// Extensions returns the whitelisted extensions in sorted order.
func (w *Whitelist) Extensions() []string {
	return sortedKeys(w.extensions)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
