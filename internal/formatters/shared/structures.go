// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"time"

	"cardsearch/internal/detector"
	"cardsearch/internal/formatters"
	"cardsearch/internal/security"
	"cardsearch/internal/suppressions"
)

// visibleDigits is how many trailing digits a masked value keeps.
const visibleDigits = 4

// Response represents the top-level response structure for JSON/YAML output
type Response struct {
	Results    []Finding           `json:"results" yaml:"results"`
	Suppressed []SuppressedFinding `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
}

// Finding represents a single match in JSON/YAML format
type Finding struct {
	Filename   string `json:"filename" yaml:"filename"`
	Source     string `json:"source" yaml:"source"`
	Offset     int64  `json:"offset" yaml:"offset"`
	Scheme     string `json:"scheme" yaml:"scheme"`
	Length     int    `json:"length" yaml:"length"`
	Value      string `json:"value" yaml:"value"`
	Hash       string `json:"finding_hash" yaml:"finding_hash"`
	BeforeText string `json:"before_text,omitempty" yaml:"before_text,omitempty"`
	AfterText  string `json:"after_text,omitempty" yaml:"after_text,omitempty"`
}

// SuppressedFinding is a finding hidden by a suppression rule
type SuppressedFinding struct {
	Finding      `yaml:",inline"`
	SuppressedBy string     `json:"suppressed_by" yaml:"suppressed_by"`
	RuleReason   string     `json:"rule_reason" yaml:"rule_reason"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// MaskValue keeps the last four digits and replaces the rest with '*'.
func MaskValue(value string) string {
	return security.NewSecureString(value).Masked(visibleDigits)
}

// DisplayValue returns the value as the options allow it to be shown.
func DisplayValue(match detector.Match, options formatters.FormatterOptions) string {
	if options.ShowMatch {
		return match.Value()
	}
	return match.SecureText.Masked(visibleDigits)
}

// ConvertFinding converts one match to its report form
func ConvertFinding(match detector.Match, options formatters.FormatterOptions) Finding {
	finding := Finding{
		Filename: match.Filename,
		Source:   match.Source,
		Offset:   match.Offset,
		Scheme:   match.Scheme,
		Length:   match.Length,
		Value:    DisplayValue(match, options),
		Hash:     suppressions.FindingHash(match),
	}

	if options.Verbose {
		finding.BeforeText = match.Context.BeforeText
		finding.AfterText = match.Context.AfterText
	}

	return finding
}

// ConvertMatches converts detector matches to the JSON/YAML report structure
func ConvertMatches(matches []detector.Match, suppressedMatches []detector.SuppressedMatch, options formatters.FormatterOptions) Response {
	response := Response{Results: make([]Finding, 0, len(matches))}

	for _, match := range matches {
		response.Results = append(response.Results, ConvertFinding(match, options))
	}

	for _, s := range suppressedMatches {
		response.Suppressed = append(response.Suppressed, SuppressedFinding{
			Finding:      ConvertFinding(s.Match, options),
			SuppressedBy: s.SuppressedBy,
			RuleReason:   s.RuleReason,
			ExpiresAt:    s.ExpiresAt,
		})
	}

	return response
}
