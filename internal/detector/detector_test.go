// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"testing"

	"cardsearch/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whole(data string) Window {
	return Window{Data: []byte(data), Start: 0, End: len(data), Final: true}
}

func digitsOf(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Digits)
	}
	return out
}

func TestExtract_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"bare", "4539578763621486", []string{"4539578763621486"}},
		{"spaces", "card 4539578763621486 end", []string{"4539578763621486"}},
		{"punctuation", "x=4539578763621486;", []string{"4539578763621486"}},
		{"too short", "12345678901", nil},
		{"too long", "12345678901234567890", nil},
		{"min length", "123456789012", []string{"123456789012"}},
		{"max length", "1234567890123456789", []string{"1234567890123456789"}},
		{"letter before", "a4539578763621486", nil},
		{"letter after", "4539578763621486z", nil},
		{"underscore", "_4539578763621486", nil},
		{"two runs", "4539578763621486,371449635398407", []string{"4539578763621486", "371449635398407"}},
		{"grouped digits are not one run", "4539 5787 6362 1486", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(whole(tt.input), nil)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, digitsOf(got))
		})
	}
}

func TestExtract_Offsets(t *testing.T) {
	w := whole("abc 4539578763621486")
	w.Offset = 1000

	got := Extract(w, nil)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1004), got[0].Offset)
	assert.Equal(t, 4, got[0].Index)
}

func TestExtract_Marker(t *testing.T) {
	marker := []byte("test:")

	assert.Empty(t, Extract(whole("test:4539578763621486"), marker))
	assert.Empty(t, Extract(whole("TEST:4539578763621486"), marker))
	assert.Len(t, Extract(whole("test: 4539578763621486"), marker), 1)
	assert.Len(t, Extract(whole("4539578763621486"), marker), 1)
}

func TestExtract_OwnRegionOnly(t *testing.T) {
	data := []byte("4539578763621486 371449635398407 ")
	w := Window{Data: data, Start: 1, End: 20, Final: true}

	// The first run starts in the lookbehind, the second inside the region.
	assert.Equal(t, []string{"371449635398407"}, digitsOf(Extract(w, nil)))

	w = Window{Data: data, Start: 0, End: 17, Final: true}
	assert.Equal(t, []string{"4539578763621486"}, digitsOf(Extract(w, nil)))
}

func TestExtract_DefersRunAtWindowEnd(t *testing.T) {
	data := []byte("xx 4539578763621486")
	w := Window{Data: data, Start: 0, End: len(data) - 1, Final: false}
	assert.Empty(t, Extract(w, nil))

	w.Final = true
	assert.Len(t, Extract(w, nil), 1)
}

func TestContextExtractor(t *testing.T) {
	w := whole("prefix\n4539578763621486\tsuffix-bytes")
	cands := Extract(w, nil)
	require.Len(t, cands, 1)

	ctx := NewContextExtractor().WithContextChars(4).ExtractContext(w, cands[0])
	assert.Equal(t, "fix.", ctx.BeforeText)
	assert.Equal(t, ".suf", ctx.AfterText)

	ctx = NewContextExtractor().ExtractContext(w, cands[0])
	assert.Equal(t, "prefix.", ctx.BeforeText)
	assert.Equal(t, ".suffix-bytes", ctx.AfterText)

	ctx = NewContextExtractor().WithContextChars(0).ExtractContext(w, cands[0])
	assert.Empty(t, ctx.BeforeText)
}

func TestMatch_Clear(t *testing.T) {
	m := Match{
		Filename:   "/tmp/a",
		SecureText: security.NewSecureString("4539578763621486"),
		Context:    ContextInfo{BeforeText: "x", AfterText: "y"},
	}
	assert.Equal(t, "4539578763621486", m.Value())

	m.Clear()
	assert.Empty(t, m.Value())
	assert.Nil(t, m.SecureText)
	assert.Empty(t, m.Context.BeforeText)
	assert.Empty(t, m.Context.AfterText)
}
