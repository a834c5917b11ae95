// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package junit

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"cardsearch/internal/detector"
	"cardsearch/internal/formatters"
	"cardsearch/internal/formatters/shared"
)

// JUnit XML structures based on the standard JUnit XML schema
type TestSuites struct {
	XMLName    xml.Name    `xml:"testsuites"`
	Name       string      `xml:"name,attr"`
	Tests      int         `xml:"tests,attr"`
	Failures   int         `xml:"failures,attr"`
	Skipped    int         `xml:"skipped,attr"`
	TestSuites []TestSuite `xml:"testsuite"`
}

type TestSuite struct {
	Name      string     `xml:"name,attr"`
	Tests     int        `xml:"tests,attr"`
	Failures  int        `xml:"failures,attr"`
	Skipped   int        `xml:"skipped,attr"`
	TestCases []TestCase `xml:"testcase"`
}

type TestCase struct {
	Name      string   `xml:"name,attr"`
	ClassName string   `xml:"classname,attr"`
	Failure   *Failure `xml:"failure,omitempty"`
	Skipped   *Skipped `xml:"skipped,omitempty"`
}

type Failure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

type Skipped struct {
	Message string `xml:"message,attr"`
}

// Formatter implements JUnit XML output formatting. Every file holding card
// numbers becomes a failing test case, every suppressed finding a skipped one.
type Formatter struct{}

// NewFormatter creates a new JUnit XML formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "junit"
}

func (f *Formatter) Description() string {
	return "JUnit XML format for CI/CD integration and test reporting"
}

func (f *Formatter) FileExtension() string {
	return ".xml"
}

func (f *Formatter) Format(matches []detector.Match, suppressedMatches []detector.SuppressedMatch, options formatters.FormatterOptions) (string, error) {
	findings := TestSuite{Name: "card-numbers"}
	byFile := make(map[string][]detector.Match)
	for _, m := range matches {
		byFile[m.Filename] = append(byFile[m.Filename], m)
	}
	for _, filename := range sortedKeys(byFile) {
		findings.TestCases = append(findings.TestCases, failingCase(filename, byFile[filename], options))
		findings.Tests++
		findings.Failures++
	}

	suites := TestSuites{
		Name:       "cardsearch",
		Tests:      findings.Tests,
		Failures:   findings.Failures,
		TestSuites: []TestSuite{findings},
	}

	if len(suppressedMatches) > 0 {
		suppressed := TestSuite{Name: "suppressed-findings"}
		for _, s := range suppressedMatches {
			suppressed.TestCases = append(suppressed.TestCases, TestCase{
				Name:      fmt.Sprintf("%s@%d", s.Match.Filename, s.Match.Offset),
				ClassName: "cardsearch.suppressed",
				Skipped:   &Skipped{Message: fmt.Sprintf("suppressed by %s: %s", s.SuppressedBy, s.RuleReason)},
			})
			suppressed.Tests++
			suppressed.Skipped++
		}
		suites.Tests += suppressed.Tests
		suites.Skipped = suppressed.Skipped
		suites.TestSuites = append(suites.TestSuites, suppressed)
	}

	out, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error formatting JUnit XML: %w", err)
	}
	return xml.Header + string(out) + "\n", nil
}

func failingCase(filename string, matches []detector.Match, options formatters.FormatterOptions) TestCase {
	var content strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&content, "%s at byte %d (%s): %s\n", m.Scheme, m.Offset, m.Source, shared.DisplayValue(m, options))
	}

	return TestCase{
		Name:      filename,
		ClassName: "cardsearch.files",
		Failure: &Failure{
			Message: fmt.Sprintf("%d card number(s) found", len(matches)),
			Type:    "CardNumberFound",
			Content: content.String(),
		},
	}
}

func sortedKeys(m map[string][]detector.Match) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	formatters.Register(NewFormatter())
}
