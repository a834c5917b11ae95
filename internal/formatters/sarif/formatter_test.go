// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sarif

import (
	"encoding/json"
	"testing"
	"time"

	"cardsearch/internal/detector"
	"cardsearch/internal/formatters"
	"cardsearch/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(path, scheme, value string, offset int64) detector.Match {
	return detector.Match{
		Filename:   path,
		Source:     detector.SourceRaw,
		Offset:     offset,
		Scheme:     scheme,
		Length:     len(value),
		SecureText: security.NewSecureString(value),
		Context:    detector.ContextInfo{BeforeText: "card ", AfterText: "\n"},
	}
}

func format(t *testing.T, matches []detector.Match, suppressed []detector.SuppressedMatch, options formatters.FormatterOptions) Report {
	t.Helper()
	out, err := NewFormatter().Format(matches, suppressed, options)
	require.NoError(t, err)

	var report Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	return report
}

func TestRuleID(t *testing.T) {
	assert.Equal(t, "CARD_VISA", RuleID("Visa"))
	assert.Equal(t, "CARD_AMERICAN_EXPRESS", RuleID("American Express"))
	assert.Equal(t, "CARD_DINERS_CLUB", RuleID("Diners-Club"))
}

func TestFormat_ResultsAndRules(t *testing.T) {
	report := format(t, []detector.Match{
		match("/srv/a.txt", "Visa", "4539578763621486", 5),
		match("logs/b.log", "Mastercard", "5212345678900004", 0),
		match("/srv/c.txt", "Visa", "4111111111111111", 9),
	}, nil, formatters.FormatterOptions{})

	assert.Equal(t, Version, report.Version)
	require.Len(t, report.Runs, 1)
	run := report.Runs[0]
	assert.Equal(t, ToolName, run.Tool.Driver.Name)

	require.Len(t, run.Tool.Driver.Rules, 2)
	assert.Equal(t, "CARD_MASTERCARD", run.Tool.Driver.Rules[0].ID)
	assert.Equal(t, "CARD_VISA", run.Tool.Driver.Rules[1].ID)

	require.Len(t, run.Results, 3)
	first := run.Results[0]
	assert.Equal(t, "CARD_VISA", first.RuleID)
	assert.Equal(t, LevelError, first.Level)
	assert.Contains(t, first.Message.Text, "************1486")
	assert.NotContains(t, first.Message.Text, "4539578763621486")
	assert.Len(t, first.PartialFingerprints["findingHash/v1"], 64)

	loc := first.Locations[0].PhysicalLocation
	assert.Equal(t, "file:///srv/a.txt", loc.ArtifactLocation.URI)
	assert.Equal(t, int64(5), loc.Region.ByteOffset)
	assert.Equal(t, 16, loc.Region.ByteLength)
	assert.Nil(t, loc.ContextRegion)

	rel := run.Results[1].Locations[0].PhysicalLocation.ArtifactLocation
	assert.Equal(t, "logs/b.log", rel.URI)
	assert.Equal(t, "%SRCROOT%", rel.URIBaseID)
}

func TestFormat_VerboseContextAndShowMatch(t *testing.T) {
	report := format(t, []detector.Match{match("/a.txt", "Visa", "4539578763621486", 5)}, nil,
		formatters.FormatterOptions{Verbose: true, ShowMatch: true})

	loc := report.Runs[0].Results[0].Locations[0].PhysicalLocation
	require.NotNil(t, loc.ContextRegion)
	assert.Equal(t, int64(0), loc.ContextRegion.ByteOffset)
	assert.Equal(t, "card 4539578763621486\n", loc.ContextRegion.Snippet.Text)
}

func TestFormat_Suppressed(t *testing.T) {
	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	report := format(t, nil, []detector.SuppressedMatch{{
		Match:        match("/a.txt", "Visa", "4539578763621486", 5),
		SuppressedBy: "SUP-00000001",
		RuleReason:   "test fixture",
		ExpiresAt:    &expires,
	}}, formatters.FormatterOptions{})

	result := report.Runs[0].Results[0]
	assert.Equal(t, LevelNone, result.Level)
	require.Len(t, result.Suppressions, 1)
	assert.Equal(t, "test fixture", result.Suppressions[0].Justification)
	assert.Equal(t, "SUP-00000001", result.Properties["suppressedBy"])
	assert.Equal(t, "2030-01-02T03:04:05Z", result.Properties["expiresAt"])
}

func TestFormat_Empty(t *testing.T) {
	report := format(t, nil, nil, formatters.FormatterOptions{})
	assert.Empty(t, report.Runs[0].Results)
	assert.Empty(t, report.Runs[0].Tool.Driver.Rules)
}

func TestRegistered(t *testing.T) {
	f, ok := formatters.Get("sarif")
	require.True(t, ok)
	assert.Equal(t, ".sarif", f.FileExtension())
}
