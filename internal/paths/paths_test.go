// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestGetConfigDir_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(ConfigDirEnvVar, dir)

	if got := GetConfigDir(); got != dir {
		t.Errorf("GetConfigDir() = %q, want %q", got, dir)
	}
	if got := GetSuppressionsFile(); got != filepath.Join(dir, "suppressions.yaml") {
		t.Errorf("GetSuppressionsFile() = %q", got)
	}
	if got := GetConfigFile(); got != filepath.Join(dir, "config.yaml") {
		t.Errorf("GetConfigFile() = %q", got)
	}
}

func TestResolvePath(t *testing.T) {
	got, err := ResolvePath("/var/log/../log/./cardsearch.log")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/var/log/cardsearch.log" {
		t.Errorf("ResolvePath = %q", got)
	}

	got, err = ResolvePath("relative.log")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("expected absolute path, got %q", got)
	}

	if got, _ := ResolvePath(""); got != "" {
		t.Errorf("empty path should stay empty, got %q", got)
	}
}

func TestValidatePath_NullByte(t *testing.T) {
	var pve *PathValidationError
	if err := ValidatePath("a\x00b"); !errors.As(err, &pve) {
		t.Errorf("expected PathValidationError, got %v", err)
	}
	if err := ValidatePath("/tmp/ok"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
