// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package suppressions

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"cardsearch/internal/detector"
	"cardsearch/internal/paths"

	"gopkg.in/yaml.v3"
)

// DefaultExpiry is how long a new rule stays active unless told otherwise.
const DefaultExpiry = 7 * 24 * time.Hour

// SuppressionRule represents a single suppression rule
type SuppressionRule struct {
	ID         string            `yaml:"id"`
	Hash       string            `yaml:"hash"`
	Reason     string            `yaml:"reason"`
	Enabled    bool              `yaml:"enabled"`
	CreatedBy  string            `yaml:"created_by,omitempty"`
	CreatedAt  time.Time         `yaml:"created_at"`
	LastSeenAt *time.Time        `yaml:"last_seen_at,omitempty"`
	ExpiresAt  *time.Time        `yaml:"expires_at,omitempty"`
	ReviewedBy string            `yaml:"reviewed_by,omitempty"`
	ReviewedAt *time.Time        `yaml:"reviewed_at,omitempty"`
	Metadata   map[string]string `yaml:"metadata,omitempty"`
}

// SuppressionConfig represents the suppression configuration file
type SuppressionConfig struct {
	Version string            `yaml:"version"`
	Rules   []SuppressionRule `yaml:"rules"`
}

// SuppressionManager handles finding suppressions. Lookups may run from
// several scan workers at once.
type SuppressionManager struct {
	mu         sync.RWMutex
	configPath string
	config     *SuppressionConfig
	enabled    bool
	loadErr    error
}

// NewSuppressionManager creates a new suppression manager. A missing file is
// not an error; an unreadable or malformed one is recorded in LoadError and
// the manager starts empty.
func NewSuppressionManager(configPath string) *SuppressionManager {
	if configPath == "" {
		configPath = paths.GetSuppressionsFile()
	}

	manager := &SuppressionManager{
		configPath: configPath,
		enabled:    true,
	}

	manager.loadConfig()
	return manager
}

func emptyConfig() *SuppressionConfig {
	return &SuppressionConfig{
		Version: "1.0",
		Rules:   []SuppressionRule{},
	}
}

// loadConfig loads the suppression configuration
func (sm *SuppressionManager) loadConfig() {
	sm.config = emptyConfig()

	data, err := os.ReadFile(filepath.Clean(sm.configPath))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			sm.loadErr = fmt.Errorf("failed to read suppression file %s: %w", sm.configPath, err)
		}
		return
	}

	var config SuppressionConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		sm.loadErr = fmt.Errorf("failed to parse suppression file %s: %w", sm.configPath, err)
		return
	}
	if config.Rules == nil {
		config.Rules = []SuppressionRule{}
	}

	sm.config = &config
}

// LoadError reports why the suppression file could not be used, if it
// exists but was unreadable or malformed.
func (sm *SuppressionManager) LoadError() error {
	return sm.loadErr
}

// FindingHash identifies a finding across runs without storing the card
// number itself: scheme, file name, source, offset and hashed value.
func FindingHash(match detector.Match) string {
	composite := match.Scheme + "|" +
		filepath.Base(match.Filename) + "|" +
		match.Source + "|" +
		strconv.FormatInt(match.Offset, 10) + "|" +
		hashSensitiveData(match.Value())

	hash := sha256.Sum256([]byte(composite))
	return fmt.Sprintf("%x", hash)
}

// hashSensitiveData creates a hash of sensitive data
func hashSensitiveData(data string) string {
	if data == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)[:16] // Use first 16 chars for brevity
}

// IsSuppressed checks if a finding should be suppressed
func (sm *SuppressionManager) IsSuppressed(match detector.Match) (bool, *SuppressionRule) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.enabled || len(sm.config.Rules) == 0 {
		return false, nil
	}

	findingHash := FindingHash(match)
	now := time.Now()

	for _, rule := range sm.config.Rules {
		if rule.Hash != findingHash || !rule.Enabled {
			continue
		}
		if rule.ExpiresAt != nil && now.After(*rule.ExpiresAt) {
			continue
		}
		return true, &rule
	}

	return false, nil
}

func (sm *SuppressionManager) nextID() string {
	maxID := 0
	for _, existingRule := range sm.config.Rules {
		var num int
		if _, err := fmt.Sscanf(existingRule.ID, "SUP-%08d", &num); err == nil && num > maxID {
			maxID = num
		}
	}
	return fmt.Sprintf("SUP-%08d", maxID+1)
}

func ruleMetadata(match detector.Match) map[string]string {
	return map[string]string{
		"scheme":          match.Scheme,
		"filename":        filepath.Base(match.Filename),
		"source":          match.Source,
		"offset":          strconv.FormatInt(match.Offset, 10),
		"match_text_hash": hashSensitiveData(match.Value()),
	}
}

// AddSuppression adds a new suppression rule
func (sm *SuppressionManager) AddSuppression(match detector.Match, reason, createdBy string, expiresAt *time.Time) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	findingHash := FindingHash(match)

	for _, rule := range sm.config.Rules {
		if rule.Hash == findingHash {
			return fmt.Errorf("suppression rule already exists for this finding")
		}
	}

	if expiresAt == nil {
		defaultExpiry := time.Now().Add(DefaultExpiry)
		expiresAt = &defaultExpiry
	}

	sm.config.Rules = append(sm.config.Rules, SuppressionRule{
		ID:        sm.nextID(),
		Hash:      findingHash,
		Reason:    reason,
		Enabled:   true,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
		Metadata:  ruleMetadata(match),
	})
	return sm.saveConfig()
}

// RemoveSuppression removes a suppression rule by ID
func (sm *SuppressionManager) RemoveSuppression(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for i, rule := range sm.config.Rules {
		if rule.ID == id {
			sm.config.Rules = append(sm.config.Rules[:i], sm.config.Rules[i+1:]...)
			return sm.saveConfig()
		}
	}

	return fmt.Errorf("suppression rule with ID %s not found", id)
}

// ListSuppressions returns all suppression rules
func (sm *SuppressionManager) ListSuppressions() []SuppressionRule {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	out := make([]SuppressionRule, len(sm.config.Rules))
	copy(out, sm.config.Rules)
	return out
}

// saveConfig saves the suppression configuration to file. Callers hold mu.
func (sm *SuppressionManager) saveConfig() error {
	data, err := yaml.Marshal(sm.config)
	if err != nil {
		return fmt.Errorf("failed to marshal suppression config: %w", err)
	}

	dir := filepath.Dir(sm.configPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write with restrictive permissions
	if err := os.WriteFile(sm.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write suppression config: %w", err)
	}

	return nil
}

// CleanupExpired removes expired suppression rules
func (sm *SuppressionManager) CleanupExpired() (int, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	originalCount := len(sm.config.Rules)

	activeRules := make([]SuppressionRule, 0, originalCount)
	for _, rule := range sm.config.Rules {
		if rule.ExpiresAt == nil || now.Before(*rule.ExpiresAt) {
			activeRules = append(activeRules, rule)
		}
	}

	sm.config.Rules = activeRules
	removed := originalCount - len(activeRules)

	if removed > 0 {
		return removed, sm.saveConfig()
	}
	return 0, nil
}

// SetEnabled enables or disables the suppression manager
func (sm *SuppressionManager) SetEnabled(enabled bool) {
	sm.mu.Lock()
	sm.enabled = enabled
	sm.mu.Unlock()
}

// IsEnabled returns whether the suppression manager is enabled
func (sm *SuppressionManager) IsEnabled() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.enabled
}

// GetConfigPath returns the path to the suppression config file
func (sm *SuppressionManager) GetConfigPath() string {
	return sm.configPath
}

// GenerateSuppressionRules records a rule for every finding. Findings that
// already have a rule only get their last_seen_at refreshed.
func (sm *SuppressionManager) GenerateSuppressionRules(matches []detector.Match, reason string, enabled bool) (added int, err error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	existing := make(map[string]int, len(sm.config.Rules))
	for i := range sm.config.Rules {
		existing[sm.config.Rules[i].Hash] = i
	}

	updated := 0
	now := time.Now()
	expiry := now.Add(DefaultExpiry)

	for _, match := range matches {
		findingHash := FindingHash(match)

		if idx, ok := existing[findingHash]; ok {
			sm.config.Rules[idx].LastSeenAt = &now
			updated++
			continue
		}

		sm.config.Rules = append(sm.config.Rules, SuppressionRule{
			ID:         sm.nextID(),
			Hash:       findingHash,
			Reason:     reason,
			Enabled:    enabled,
			CreatedAt:  now,
			LastSeenAt: &now,
			ExpiresAt:  &expiry,
			Metadata:   ruleMetadata(match),
		})
		existing[findingHash] = len(sm.config.Rules) - 1
		added++
	}

	if added > 0 || updated > 0 {
		return added, sm.saveConfig()
	}
	return 0, nil
}

// EnableSuppressionByHash enables a suppression rule by hash
func (sm *SuppressionManager) EnableSuppressionByHash(hash, reason string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for i := range sm.config.Rules {
		if sm.config.Rules[i].Hash == hash {
			sm.config.Rules[i].Enabled = true
			if reason != "" {
				sm.config.Rules[i].Reason = reason
			}
			now := time.Now()
			sm.config.Rules[i].LastSeenAt = &now
			return sm.saveConfig()
		}
	}

	return fmt.Errorf("suppression rule with hash %s not found", hash)
}

// DisableSuppressionByID disables a suppression rule by ID
func (sm *SuppressionManager) DisableSuppressionByID(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for i := range sm.config.Rules {
		if sm.config.Rules[i].ID == id {
			sm.config.Rules[i].Enabled = false
			return sm.saveConfig()
		}
	}

	return fmt.Errorf("suppression rule with ID %s not found", id)
}
