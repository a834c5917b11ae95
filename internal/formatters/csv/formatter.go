// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"strconv"
	"strings"

	"cardsearch/internal/detector"
	"cardsearch/internal/formatters"
	"cardsearch/internal/formatters/shared"
)

// Formatter implements CSV output formatting
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated values for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

func (f *Formatter) Format(matches []detector.Match, suppressedMatches []detector.SuppressedMatch, options formatters.FormatterOptions) (string, error) {
	headers := []string{"Filename", "Source", "Offset", "Scheme", "Length", "Value", "Status"}
	if options.Verbose {
		headers = append(headers, "Before", "After")
	}

	csvRows := []string{strings.Join(headers, ",")}

	for _, match := range matches {
		csvRows = append(csvRows, f.createCSVRow(match, options, "FOUND"))
	}

	for _, suppressed := range suppressedMatches {
		csvRows = append(csvRows, f.createCSVRow(suppressed.Match, options, "SUPPRESSED"))
	}

	return strings.Join(csvRows, "\n") + "\n", nil
}

// createCSVRow creates a CSV row for a match
func (f *Formatter) createCSVRow(match detector.Match, options formatters.FormatterOptions, status string) string {
	row := []string{
		f.escapeCSVField(match.Filename),
		f.escapeCSVField(match.Source),
		strconv.FormatInt(match.Offset, 10),
		f.escapeCSVField(match.Scheme),
		strconv.Itoa(match.Length),
		f.escapeCSVField(shared.DisplayValue(match, options)),
		status,
	}

	if options.Verbose {
		row = append(row,
			f.escapeCSVField(match.Context.BeforeText),
			f.escapeCSVField(match.Context.AfterText),
		)
	}

	return strings.Join(row, ",")
}

// escapeCSVField properly escapes a field for CSV format and prevents CSV injection
func (f *Formatter) escapeCSVField(field string) string {
	field = f.sanitizeFormulaInjection(field)

	if strings.ContainsAny(field, ",\"\n\r") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}

// sanitizeFormulaInjection neutralizes fields a spreadsheet would evaluate
// as formulas. Context snippets come straight from scanned files.
func (f *Formatter) sanitizeFormulaInjection(field string) string {
	if len(field) == 0 {
		return field
	}

	switch field[0] {
	case '=', '+', '-', '@':
		return "'" + field
	}
	return field
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
