// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

// DefaultContextChars is the snippet width on each side of a match.
const DefaultContextChars = 16

// ContextInfo stores the bytes surrounding a match
type ContextInfo struct {
	BeforeText string
	AfterText  string
}

// ContextExtractor cuts bounded context snippets out of a window
type ContextExtractor struct {
	// Number of bytes before and after the match to keep
	ContextChars int
}

// NewContextExtractor creates a new context extractor with default settings
func NewContextExtractor() *ContextExtractor {
	return &ContextExtractor{ContextChars: DefaultContextChars}
}

// WithContextChars sets the number of context characters
func (ce *ContextExtractor) WithContextChars(chars int) *ContextExtractor {
	if chars < 0 {
		chars = 0
	}
	ce.ContextChars = chars
	return ce
}

// ExtractContext returns the printable neighbourhood of c within w. The
// snippet never reaches past the window, so candidates close to a window
// edge get a shorter context.
func (ce *ContextExtractor) ExtractContext(w Window, c Candidate) ContextInfo {
	if ce.ContextChars == 0 {
		return ContextInfo{}
	}

	end := c.Index + len(c.Digits)
	from := max(0, c.Index-ce.ContextChars)
	to := min(len(w.Data), end+ce.ContextChars)

	return ContextInfo{
		BeforeText: printable(w.Data[from:c.Index]),
		AfterText:  printable(w.Data[end:to]),
	}
}

// printable replaces anything outside printable ASCII with '.' so binary
// files and line breaks cannot garble a one-line record.
func printable(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			c = '.'
		}
		out[i] = c
	}
	return string(out)
}
