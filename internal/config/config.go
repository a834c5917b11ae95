// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cardsearch/internal/paths"

	"gopkg.in/yaml.v3"
)

// Built-in defaults, used when neither the config file nor a flag sets a
// value.
const (
	DefaultChunkSize    = 1 << 20
	MaxChunkSize        = 1 << 30
	DefaultContextChars = 16
	DefaultWorkers      = 1
	DefaultFormat       = "json"
	DefaultThrottleUnit = "chunks"
)

// Config represents the configuration file structure
type Config struct {
	Defaults Settings           `yaml:"defaults"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// Throttle configures the pause a scan takes to spare a busy host.
type Throttle struct {
	Every int           `yaml:"every"`
	Sleep time.Duration `yaml:"sleep"`
	Unit  string        `yaml:"unit"` // chunks or lines
}

// Settings is one complete set of run options
type Settings struct {
	Output           string   `yaml:"output"`
	Syslog           bool     `yaml:"syslog"`
	Quiet            bool     `yaml:"quiet"`
	NoExtensions     []string `yaml:"no_extensions"`
	ChunkSize        int      `yaml:"chunk_size"`
	ExcludePaths     []string `yaml:"exclude_paths"`
	ExcludeMarker    string   `yaml:"exclude_marker"`
	ContextChars     int      `yaml:"context_chars"`
	Workers          int      `yaml:"workers"`
	Throttle         Throttle `yaml:"throttle"`
	ExtractDocuments bool     `yaml:"extract_documents"`
	Report           string   `yaml:"report"`
	Format           string   `yaml:"format"`
	ReportContext    bool     `yaml:"report_context"`
	ShowMatch        bool     `yaml:"show_match"`
	SuppressionFile  string   `yaml:"suppression_file"`
	NoColor          bool     `yaml:"no_color"`
	Debug            bool     `yaml:"debug"`
}

// Profile overrides the defaults for a named use case. Unset fields keep
// the default value.
type Profile struct {
	Description string `yaml:"description"`

	Output           *string   `yaml:"output"`
	Syslog           *bool     `yaml:"syslog"`
	Quiet            *bool     `yaml:"quiet"`
	NoExtensions     []string  `yaml:"no_extensions"`
	ChunkSize        *int      `yaml:"chunk_size"`
	ExcludePaths     []string  `yaml:"exclude_paths"`
	ExcludeMarker    *string   `yaml:"exclude_marker"`
	ContextChars     *int      `yaml:"context_chars"`
	Workers          *int      `yaml:"workers"`
	Throttle         *Throttle `yaml:"throttle"`
	ExtractDocuments *bool     `yaml:"extract_documents"`
	Report           *string   `yaml:"report"`
	Format           *string   `yaml:"format"`
	ReportContext    *bool     `yaml:"report_context"`
	ShowMatch        *bool     `yaml:"show_match"`
	SuppressionFile  *string   `yaml:"suppression_file"`
	NoColor          *bool     `yaml:"no_color"`
	Debug            *bool     `yaml:"debug"`
}

func ptr[T any](v T) *T {
	return &v
}

// defaultConfig returns the built-in configuration
func defaultConfig() *Config {
	config := &Config{
		Defaults: Settings{
			ChunkSize:    DefaultChunkSize,
			ContextChars: DefaultContextChars,
			Workers:      DefaultWorkers,
			Format:       DefaultFormat,
			Throttle:     Throttle{Unit: DefaultThrottleUnit},
		},
		Profiles: make(map[string]Profile),
	}

	config.Profiles["gentle"] = Profile{
		Description: "Low-impact scan for busy production hosts",
		Workers:     ptr(1),
		Throttle:    &Throttle{Every: 8, Sleep: 50 * time.Millisecond, Unit: "chunks"},
		Quiet:       ptr(true),
	}
	config.Profiles["thorough"] = Profile{
		Description:      "Also scans text inside PDFs and image metadata",
		Workers:          ptr(4),
		ExtractDocuments: ptr(true),
	}

	return config
}

// LoadConfig loads configuration from a YAML file on top of the built-in
// defaults. An empty path returns the defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := defaultConfig()

	if configPath == "" {
		return config, nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// FindConfigFile looks for a configuration file in standard locations
func FindConfigFile() string {
	for _, candidate := range []string{"cardsearch.yaml", "cardsearch.yml", ".cardsearch.yaml", ".cardsearch.yml"} {
		if fileExists(candidate) {
			return candidate
		}
	}

	if standardConfig := paths.GetConfigFile(); fileExists(standardConfig) {
		return standardConfig
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadConfigOrDefault loads configFile, or the first file FindConfigFile
// reports, and falls back to the built-in defaults when neither can be
// used.
func LoadConfigOrDefault(configFile string) *Config {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		cfg = defaultConfig()
	}
	return cfg
}

// ProfileNames returns the configured profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the defaults with the named profile applied. An empty
// name returns the defaults.
func (c *Config) Resolve(profileName string) (Settings, error) {
	s := c.Defaults
	s.NoExtensions = append([]string(nil), c.Defaults.NoExtensions...)
	s.ExcludePaths = append([]string(nil), c.Defaults.ExcludePaths...)

	if profileName == "" {
		return s, nil
	}

	profile, ok := c.Profiles[profileName]
	if !ok {
		return Settings{}, fmt.Errorf("profile '%s' not found (available: %s)", profileName, strings.Join(c.ProfileNames(), ", "))
	}

	profile.applyTo(&s)
	return s, nil
}

func (p Profile) applyTo(s *Settings) {
	set(&s.Output, p.Output)
	set(&s.Syslog, p.Syslog)
	set(&s.Quiet, p.Quiet)
	set(&s.ChunkSize, p.ChunkSize)
	set(&s.ExcludeMarker, p.ExcludeMarker)
	set(&s.ContextChars, p.ContextChars)
	set(&s.Workers, p.Workers)
	set(&s.Throttle, p.Throttle)
	set(&s.ExtractDocuments, p.ExtractDocuments)
	set(&s.Report, p.Report)
	set(&s.Format, p.Format)
	set(&s.ReportContext, p.ReportContext)
	set(&s.ShowMatch, p.ShowMatch)
	set(&s.SuppressionFile, p.SuppressionFile)
	set(&s.NoColor, p.NoColor)
	set(&s.Debug, p.Debug)

	// lists extend the defaults
	s.NoExtensions = append(s.NoExtensions, p.NoExtensions...)
	s.ExcludePaths = append(s.ExcludePaths, p.ExcludePaths...)
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// ValidateConfig validates the configuration for basic correctness
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if err := validateSettings(config.Defaults); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	for _, name := range config.ProfileNames() {
		s, err := config.Resolve(name)
		if err != nil {
			return err
		}
		if err := validateSettings(s); err != nil {
			return fmt.Errorf("profile '%s': %w", name, err)
		}
	}

	return nil
}

func validateSettings(s Settings) error {
	if s.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must not be negative, got %d", s.ChunkSize)
	}
	if s.ChunkSize > MaxChunkSize {
		return fmt.Errorf("chunk_size must be at most %d, got %d", MaxChunkSize, s.ChunkSize)
	}
	if s.ContextChars < 0 {
		return fmt.Errorf("context_chars must not be negative, got %d", s.ContextChars)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", s.Workers)
	}
	if s.Throttle.Every < 0 || s.Throttle.Sleep < 0 {
		return fmt.Errorf("throttle values must not be negative")
	}
	switch strings.ToLower(s.Throttle.Unit) {
	case "", "chunks", "lines":
	default:
		return fmt.Errorf("throttle unit must be chunks or lines, got %q", s.Throttle.Unit)
	}

	for field, p := range map[string]string{
		"output":           s.Output,
		"report":           s.Report,
		"suppression_file": s.SuppressionFile,
	} {
		if err := paths.ValidatePath(p); err != nil {
			return fmt.Errorf("invalid %s path: %w", field, err)
		}
	}
	for _, p := range s.ExcludePaths {
		if err := paths.ValidatePath(p); err != nil {
			return fmt.Errorf("invalid exclude path: %w", err)
		}
	}

	return nil
}
