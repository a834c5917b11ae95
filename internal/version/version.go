// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package version reports the build identity of cardsearch.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X cardsearch/internal/version.Version=..." at release
// time. Commit and BuildDate fall back to the VCS stamp of the Go toolchain.
var (
	Version   = "0.0.0-development"
	Commit    = ""
	BuildDate = ""
)

type build struct {
	commit   string
	date     string
	modified bool
}

func stamp() build {
	b := build{commit: Commit, date: BuildDate}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.commit == "" {
				b.commit = s.Value
			}
		case "vcs.time":
			if b.date == "" {
				b.date = s.Value
			}
		case "vcs.modified":
			b.modified = s.Value == "true"
		}
	}
	return b
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Info is the one-line --version output.
func Info() string {
	b := stamp()
	commit := orUnknown(b.commit)
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if b.modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("cardsearch %s (commit: %s, built: %s, %s %s/%s)",
		Version, commit, orUnknown(b.date), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version number
func Short() string {
	return Version
}

// Fields returns the build identity as structured log fields.
func Fields() map[string]any {
	b := stamp()
	return map[string]any{
		"version":    Version,
		"commit":     orUnknown(b.commit),
		"build_date": orUnknown(b.date),
		"go":         runtime.Version(),
	}
}
