// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"bytes"
	"time"

	"cardsearch/internal/card"
	"cardsearch/internal/security"
)

// Sources a match can be found in.
const (
	SourceRaw  = "raw"
	SourcePDF  = "pdf"
	SourceEXIF = "exif"
)

// Window is one bounded view of a byte stream.
//
// Data[0] sits at absolute offset Offset. Only candidates whose first digit
// lies in Data[Start:End] belong to this window; bytes before Start are
// lookbehind used for boundary and marker checks, bytes after End are
// lookahead. Final is set when Data reaches the end of the stream.
type Window struct {
	Data   []byte
	Offset int64
	Start  int
	End    int
	Final  bool
}

// Candidate is a digit run that has the shape of a card number but has not
// been classified yet.
type Candidate struct {
	Digits string
	Offset int64 // absolute offset of the first digit
	Index  int   // position of the first digit in Window.Data
}

// Extract returns every candidate starting inside w's own region: maximal
// runs of 12 to 19 ASCII digits, delimited by non-word bytes on both sides
// and not immediately preceded by marker (compared case-insensitively).
//
// A run that touches the end of Data while more input follows is left for
// the next window, which will see it in full.
func Extract(w Window, marker []byte) []Candidate {
	var out []Candidate

	data := w.Data
	i := 0
	for i < len(data) {
		if !isDigit(data[i]) {
			i++
			continue
		}

		start := i
		for i < len(data) && isDigit(data[i]) {
			i++
		}
		end := i

		if start < w.Start || start >= w.End {
			continue
		}
		if end == len(data) && !w.Final {
			continue
		}

		n := end - start
		if n < card.MinCandidateLen || n > card.MaxCandidateLen {
			continue
		}
		if start > 0 && isWordByte(data[start-1]) {
			continue
		}
		if end < len(data) && isWordByte(data[end]) {
			continue
		}
		if precededBy(data, start, marker) {
			continue
		}

		out = append(out, Candidate{
			Digits: string(data[start:end]),
			Offset: w.Offset + int64(start),
			Index:  start,
		})
	}

	return out
}

func precededBy(data []byte, start int, marker []byte) bool {
	if len(marker) == 0 || start < len(marker) {
		return false
	}
	return bytes.EqualFold(data[start-len(marker):start], marker)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isWordByte(b byte) bool {
	return isDigit(b) || b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Match represents a confirmed card number
type Match struct {
	Filename   string
	Source     string
	Offset     int64
	Scheme     string
	Length     int
	SecureText *security.SecureString
	Hash       uint64 // xxhash of the value, stable across Clear

	Context ContextInfo
}

// Value returns the matched digits, or "" once the match was cleared.
func (m *Match) Value() string {
	if m.SecureText == nil {
		return ""
	}
	return m.SecureText.String()
}

// Clear securely wipes sensitive data from memory
func (m *Match) Clear() {
	if m.SecureText != nil {
		m.SecureText.Clear()
		m.SecureText = nil
	}

	m.Context.BeforeText = ""
	m.Context.AfterText = ""
}

// SuppressedMatch represents a finding that was suppressed by a rule
type SuppressedMatch struct {
	Match        Match      `json:"finding"`
	SuppressedBy string     `json:"suppressed_by"`
	RuleReason   string     `json:"rule_reason"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Expired      bool       `json:"expired"`
}
