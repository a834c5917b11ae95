// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package suppressions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cardsearch/internal/detector"
	"cardsearch/internal/security"
)

func newTestMatch(scheme, value, filename string, offset int64) detector.Match {
	return detector.Match{
		Filename:   filename,
		Source:     detector.SourceRaw,
		Offset:     offset,
		Scheme:     scheme,
		Length:     len(value),
		SecureText: security.NewSecureString(value),
	}
}

func TestNewSuppressionManager_NoFile(t *testing.T) {
	sm := NewSuppressionManager("/nonexistent/path.yaml")
	if sm == nil {
		t.Fatal("expected non-nil manager")
	}
	if !sm.IsEnabled() {
		t.Error("suppression manager should be enabled by default")
	}
	if sm.LoadError() != nil {
		t.Errorf("missing file should not be an error, got %v", sm.LoadError())
	}
}

func TestNewSuppressionManager_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	if err := os.WriteFile(path, []byte("rules: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}

	sm := NewSuppressionManager(path)
	if sm.LoadError() == nil {
		t.Error("expected a load error for malformed YAML")
	}
	if len(sm.ListSuppressions()) != 0 {
		t.Error("malformed file should leave the manager empty")
	}
}

func TestAddAndIsSuppressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")

	sm := NewSuppressionManager(path)
	match := newTestMatch("Visa", "4539578763621486", "/data/orders.csv", 120)

	if err := sm.AddSuppression(match, "test reason", "tester", nil); err != nil {
		t.Fatalf("AddSuppression failed: %v", err)
	}

	suppressed, rule := sm.IsSuppressed(match)
	if !suppressed {
		t.Fatal("match should be suppressed")
	}
	if rule.Reason != "test reason" {
		t.Errorf("expected reason 'test reason', got %q", rule.Reason)
	}
	if rule.ExpiresAt == nil || rule.ExpiresAt.Before(time.Now()) {
		t.Error("expected a default expiry in the future")
	}

	if err := sm.AddSuppression(match, "again", "tester", nil); err == nil {
		t.Error("expected duplicate suppression to fail")
	}
}

func TestIsSuppressed_DifferentOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")

	sm := NewSuppressionManager(path)
	if err := sm.AddSuppression(newTestMatch("Visa", "4539578763621486", "a.txt", 10), "ok", "tester", nil); err != nil {
		t.Fatal(err)
	}

	if suppressed, _ := sm.IsSuppressed(newTestMatch("Visa", "4539578763621486", "a.txt", 11)); suppressed {
		t.Error("a finding at another offset should not be suppressed")
	}
}

func TestFindingHash_DoesNotContainValue(t *testing.T) {
	value := "4539578763621486"
	hash := FindingHash(newTestMatch("Visa", value, "a.txt", 0))
	if len(hash) != 64 {
		t.Errorf("expected sha256 hex digest, got %q", hash)
	}

	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	sm := NewSuppressionManager(path)
	if err := sm.AddSuppression(newTestMatch("Visa", value, "a.txt", 0), "ok", "tester", nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), value) {
		t.Error("suppression file must not store the card number")
	}
}

func TestRemoveSuppression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")

	sm := NewSuppressionManager(path)
	match := newTestMatch("Amex", "371449635398407", "doc.txt", 0)

	if err := sm.AddSuppression(match, "false positive", "tester", nil); err != nil {
		t.Fatalf("AddSuppression failed: %v", err)
	}

	rules := sm.ListSuppressions()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].ID != "SUP-00000001" {
		t.Errorf("unexpected rule ID %q", rules[0].ID)
	}

	if err := sm.RemoveSuppression(rules[0].ID); err != nil {
		t.Fatalf("RemoveSuppression failed: %v", err)
	}

	if suppressed, _ := sm.IsSuppressed(match); suppressed {
		t.Error("match should no longer be suppressed after removal")
	}
	if err := sm.RemoveSuppression("SUP-99999999"); err == nil {
		t.Error("expected error for unknown ID")
	}
}

func TestCleanupExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")

	sm := NewSuppressionManager(path)
	match := newTestMatch("JCB", "3529123456780002", "file.txt", 5)

	past := time.Now().Add(-time.Hour)
	if err := sm.AddSuppression(match, "expired", "tester", &past); err != nil {
		t.Fatalf("AddSuppression failed: %v", err)
	}

	if suppressed, _ := sm.IsSuppressed(match); suppressed {
		t.Error("expired suppression should not suppress match")
	}

	removed, err := sm.CleanupExpired()
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 expired rule removed, got %d", removed)
	}
}

func TestSetEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	sm := NewSuppressionManager(path)
	match := newTestMatch("Visa", "4539578763621486", "a.txt", 0)
	if err := sm.AddSuppression(match, "ok", "tester", nil); err != nil {
		t.Fatal(err)
	}

	sm.SetEnabled(false)
	if sm.IsEnabled() {
		t.Error("expected manager to be disabled")
	}
	if suppressed, _ := sm.IsSuppressed(match); suppressed {
		t.Error("disabled manager should not suppress")
	}
	sm.SetEnabled(true)
	if !sm.IsEnabled() {
		t.Error("expected manager to be enabled")
	}
}

func TestGenerateSuppressionRules_DisabledUntilEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")

	sm := NewSuppressionManager(path)
	matches := []detector.Match{
		newTestMatch("Visa", "4539578763621486", "f.txt", 0),
		newTestMatch("Amex", "371449635398407", "f.txt", 40),
	}

	added, err := sm.GenerateSuppressionRules(matches, "bulk suppress", false)
	if err != nil {
		t.Fatalf("GenerateSuppressionRules failed: %v", err)
	}
	if added != 2 {
		t.Errorf("expected 2 rules added, got %d", added)
	}

	if suppressed, _ := sm.IsSuppressed(matches[0]); suppressed {
		t.Error("generated rules start disabled")
	}

	if err := sm.EnableSuppressionByHash(FindingHash(matches[0]), "reviewed"); err != nil {
		t.Fatalf("EnableSuppressionByHash failed: %v", err)
	}
	if suppressed, rule := sm.IsSuppressed(matches[0]); !suppressed || rule.Reason != "reviewed" {
		t.Error("enabled rule should suppress with the new reason")
	}

	// A second pass only refreshes existing rules.
	added, err = sm.GenerateSuppressionRules(matches, "bulk suppress", false)
	if err != nil {
		t.Fatal(err)
	}
	if added != 0 || len(sm.ListSuppressions()) != 2 {
		t.Errorf("expected no new rules, got %d added and %d total", added, len(sm.ListSuppressions()))
	}
}

func TestDisableSuppressionByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	sm := NewSuppressionManager(path)
	match := newTestMatch("Visa", "4539578763621486", "a.txt", 0)
	if err := sm.AddSuppression(match, "ok", "tester", nil); err != nil {
		t.Fatal(err)
	}

	if err := sm.DisableSuppressionByID("SUP-00000001"); err != nil {
		t.Fatalf("DisableSuppressionByID failed: %v", err)
	}
	if suppressed, _ := sm.IsSuppressed(match); suppressed {
		t.Error("disabled rule should not suppress")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := "/some/path.yaml"
	sm := NewSuppressionManager(path)
	if sm.GetConfigPath() != path {
		t.Errorf("expected config path %q, got %q", path, sm.GetConfigPath())
	}
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")

	sm1 := NewSuppressionManager(path)
	match := newTestMatch("MasterCard", "5212345678900004", "card.txt", 3)
	if err := sm1.AddSuppression(match, "test card", "tester", nil); err != nil {
		t.Fatalf("AddSuppression failed: %v", err)
	}

	// Verify file was written
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("suppression file should have been created")
	}

	// Load in a new manager and verify the rule persists
	sm2 := NewSuppressionManager(path)
	suppressed, _ := sm2.IsSuppressed(match)
	if !suppressed {
		t.Error("suppression should persist across manager instances")
	}
}
