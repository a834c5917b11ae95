// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()
	if !strings.HasPrefix(info, "cardsearch "+Version+" (commit: ") {
		t.Errorf("unexpected version line %q", info)
	}
	if !strings.Contains(info, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("version line %q lacks the platform", info)
	}
}

func TestLdflagsTakePrecedence(t *testing.T) {
	oldCommit, oldDate := Commit, BuildDate
	t.Cleanup(func() { Commit, BuildDate = oldCommit, oldDate })

	Commit, BuildDate = "abcdef0123456789", "2026-01-02"
	info := Info()
	if !strings.Contains(info, "commit: abcdef012345") || strings.Contains(info, "abcdef0123456789") {
		t.Errorf("commit should be shortened to 12 chars: %q", info)
	}
	if !strings.Contains(info, "built: 2026-01-02") {
		t.Errorf("build date missing: %q", info)
	}

	fields := Fields()
	if fields["commit"] != "abcdef0123456789" || fields["version"] != Version {
		t.Errorf("unexpected fields %v", fields)
	}
}
