// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sarif

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cardsearch/internal/detector"
	"cardsearch/internal/formatters"
	"cardsearch/internal/formatters/shared"
	"cardsearch/internal/suppressions"
	"cardsearch/internal/version"
)

// Formatter implements the formatters.Formatter interface for SARIF output
type Formatter struct{}

// NewFormatter creates a new SARIF formatter instance
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "sarif"
}

func (f *Formatter) Description() string {
	return "SARIF 2.1.0 format for code scanning dashboards and IDEs"
}

func (f *Formatter) FileExtension() string {
	return ".sarif"
}

// Format converts matches and suppressed matches to a single-run SARIF report.
// Rules are created per card scheme on first use.
func (f *Formatter) Format(matches []detector.Match, suppressedMatches []detector.SuppressedMatch, options formatters.FormatterOptions) (string, error) {
	rules := make(map[string]Rule)
	results := make([]Result, 0, len(matches)+len(suppressedMatches))

	for _, match := range matches {
		results = append(results, buildResult(match, rules, options))
	}

	for _, s := range suppressedMatches {
		result := buildResult(s.Match, rules, options)
		result.Level = LevelNone
		result.Suppressions = []Suppression{{
			Kind:          SuppressionKindExternal,
			Status:        "accepted",
			Justification: s.RuleReason,
		}}
		result.Properties["suppressedBy"] = s.SuppressedBy
		if s.ExpiresAt != nil {
			result.Properties["expiresAt"] = s.ExpiresAt.Format(time.RFC3339)
		}
		results = append(results, result)
	}

	report := Report{
		Schema:  SchemaURL,
		Version: Version,
		Runs: []Run{{
			Tool: Tool{Driver: Driver{
				Name:            ToolName,
				Version:         version.Short(),
				SemanticVersion: version.Short(),
				Rules:           sortedRules(rules),
			}},
			Results: results,
		}},
	}

	jsonBytes, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal SARIF report: %w", err)
	}
	return string(jsonBytes) + "\n", nil
}

// RuleID derives the rule identifier of a card scheme, e.g. CARD_AMERICAN_EXPRESS.
func RuleID(scheme string) string {
	id := strings.ToUpper(strings.TrimSpace(scheme))
	id = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, id)
	return "CARD_" + id
}

func buildResult(match detector.Match, rules map[string]Rule, options formatters.FormatterOptions) Result {
	id := RuleID(match.Scheme)
	if _, ok := rules[id]; !ok {
		rules[id] = newRule(id, match.Scheme)
	}

	value := shared.DisplayValue(match, options)
	location := PhysicalLocation{
		ArtifactLocation: artifactLocation(match.Filename),
		Region: Region{
			ByteOffset: match.Offset,
			ByteLength: match.Length,
		},
	}
	if options.Verbose && (match.Context.BeforeText != "" || match.Context.AfterText != "") {
		location.ContextRegion = &Region{
			ByteOffset: max(0, match.Offset-int64(len(match.Context.BeforeText))),
			Snippet:    &Snippet{Text: match.Context.BeforeText + value + match.Context.AfterText},
		}
	}

	hash := suppressions.FindingHash(match)
	return Result{
		RuleID: id,
		Level:  LevelError,
		Message: Message{Text: fmt.Sprintf("%s card number %s (%d digits) in %s at byte offset %d",
			match.Scheme, value, match.Length, filepath.Base(match.Filename), match.Offset)},
		Locations:           []Location{{PhysicalLocation: location}},
		PartialFingerprints: map[string]string{"findingHash/v1": hash},
		Properties: map[string]any{
			"scheme": match.Scheme,
			"source": match.Source,
		},
	}
}

func newRule(id, scheme string) Rule {
	return Rule{
		ID:               id,
		Name:             scheme,
		ShortDescription: Message{Text: scheme + " card number detected"},
		FullDescription: Message{Text: "A number with a valid " + scheme +
			" prefix, length and Luhn checksum was found in the scanned content."},
		Help: Message{Text: "Card numbers must not be stored outside PCI DSS scoped systems. " +
			"Remove the number or, if it is test data, add a suppression rule for the finding."},
		Properties: map[string]any{"tags": []string{"security", "pci-dss"}},
	}
}

func sortedRules(rules map[string]Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// artifactLocation keeps relative paths relative to %SRCROOT% and turns
// absolute ones into file URIs.
func artifactLocation(path string) ArtifactLocation {
	clean := filepath.ToSlash(filepath.Clean(path))
	if filepath.IsAbs(path) {
		return ArtifactLocation{URI: "file://" + clean}
	}
	return ArtifactLocation{URI: clean, URIBaseID: "%SRCROOT%"}
}

func init() {
	formatters.Register(NewFormatter())
}
