// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"bytes"
	"strings"
	"testing"

	"cardsearch/internal/card"
	"cardsearch/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLengths(t *testing.T) {
	assert.Equal(t, "12-18", FormatLengths([]int{12, 13, 14, 15, 16, 17, 18}))
	assert.Equal(t, "16, 18, 19", FormatLengths([]int{16, 18, 19}))
	assert.Equal(t, "14", FormatLengths([]int{14}))
	assert.Equal(t, "", FormatLengths(nil))
}

func TestFormatRange(t *testing.T) {
	assert.Equal(t, "34", FormatRange(card.PrefixRange{Lo: 34, Hi: 34}))
	assert.Equal(t, "622126-622924", FormatRange(card.PrefixRange{Lo: 622126, Hi: 622924}))
}

func TestShowSchemes(t *testing.T) {
	var buf bytes.Buffer
	NewSystem(&buf, true).ShowSchemes(card.DefaultRules())
	out := buf.String()

	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 3)
	assert.Contains(t, lines[1], "SCHEME")
	// alphabetical, so Amex comes first
	assert.Contains(t, lines[2], "Amex")
	assert.Contains(t, lines[2], "34, 37")

	assert.Contains(t, out, "12-18")
	assert.Contains(t, out, "Visa Electron")
	assert.NotContains(t, out, "\x1b[")
}

func TestShowProfiles(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	var buf bytes.Buffer
	NewSystem(&buf, true).ShowProfiles(cfg)
	assert.Contains(t, buf.String(), "gentle")
	assert.Contains(t, buf.String(), "thorough")

	buf.Reset()
	NewSystem(&buf, true).ShowProfiles(&config.Config{})
	assert.Equal(t, "No profiles configured.\n", buf.String())
}
