// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"cardsearch/internal/card"
	"cardsearch/internal/config"

	"github.com/fatih/color"
)

// Examples is the example block of the command help.
const Examples = `  cardsearch /home /srv
  cardsearch -q -o /var/log/cardsearch.log /
  cardsearch -e jpg,png,iso --exclude-marker TEST: /data
  cardsearch --throttle-every 50 --throttle-sleep 100ms --throttle-unit lines /var/www
  cardsearch -w 4 --extract-documents --report findings.json /shares
  cardsearch --config cardsearch.yaml --profile gentle /`

// System renders the informational listings of the CLI
type System struct {
	w      io.Writer
	colors map[string]*color.Color
}

// NewSystem creates a new help system writing to w
func NewSystem(w io.Writer, noColor bool) *System {
	h := &System{
		w: w,
		colors: map[string]*color.Color{
			"header":   color.New(color.FgBlue, color.Bold),
			"emphasis": color.New(color.FgWhite, color.Bold),
			"item":     color.New(color.FgCyan),
			"example":  color.New(color.FgMagenta),
		},
	}
	for _, c := range h.colors {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return h
}

type schemeRow struct {
	prefixes []string
	lengths  []int
}

// ShowSchemes lists every scheme of the rule table with its prefixes and
// allowed lengths, in alphabetical order.
func (h *System) ShowSchemes(rules []card.Rule) {
	rows := make(map[string]*schemeRow)
	for _, rule := range rules {
		row, ok := rows[rule.Scheme]
		if !ok {
			row = &schemeRow{}
			rows[rule.Scheme] = row
		}
		for _, rng := range rule.Ranges {
			row.prefixes = append(row.prefixes, FormatRange(rng))
		}
		row.lengths = mergeLengths(row.lengths, rule.Lengths)
	}

	schemes := make([]string, 0, len(rows))
	for scheme := range rows {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)

	h.colors["header"].Fprintln(h.w, "SUPPORTED CARD SCHEMES:")
	w := tabwriter.NewWriter(h.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  SCHEME\tPREFIXES\tLENGTHS")
	for _, scheme := range schemes {
		row := rows[scheme]
		fmt.Fprintf(w, "  %s\t%s\t%s\n",
			h.colors["emphasis"].Sprint(scheme),
			strings.Join(row.prefixes, ", "),
			FormatLengths(row.lengths))
	}
	w.Flush()

	fmt.Fprintln(h.w)
	fmt.Fprintln(h.w, "Every number must also pass the Luhn checksum. Well-known test numbers and")
	fmt.Fprintln(h.w, "runs of a single repeated digit are never reported.")
}

// ShowProfiles lists the profiles of a configuration.
func (h *System) ShowProfiles(cfg *config.Config) {
	names := cfg.ProfileNames()
	if len(names) == 0 {
		fmt.Fprintln(h.w, "No profiles configured.")
		return
	}

	h.colors["header"].Fprintln(h.w, "AVAILABLE PROFILES:")
	w := tabwriter.NewWriter(h.w, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%s\n", h.colors["item"].Sprint(name), cfg.Profiles[name].Description)
	}
	w.Flush()

	fmt.Fprintln(h.w)
	fmt.Fprint(h.w, "Use a profile with ")
	h.colors["example"].Fprintln(h.w, "cardsearch --profile <name> <root>...")
}

// FormatRange renders an inclusive prefix range as "34" or "300-304".
func FormatRange(rng card.PrefixRange) string {
	if rng.Lo == rng.Hi {
		return strconv.Itoa(rng.Lo)
	}
	return strconv.Itoa(rng.Lo) + "-" + strconv.Itoa(rng.Hi)
}

// FormatLengths renders sorted lengths, collapsing consecutive runs of
// three or more: [12 13 14 15] becomes "12-15", [16 18 19] stays "16, 18, 19".
func FormatLengths(lengths []int) string {
	var parts []string
	for i := 0; i < len(lengths); {
		j := i
		for j+1 < len(lengths) && lengths[j+1] == lengths[j]+1 {
			j++
		}
		if j-i >= 2 {
			parts = append(parts, fmt.Sprintf("%d-%d", lengths[i], lengths[j]))
		} else {
			for k := i; k <= j; k++ {
				parts = append(parts, strconv.Itoa(lengths[k]))
			}
		}
		i = j + 1
	}
	return strings.Join(parts, ", ")
}

func mergeLengths(have, add []int) []int {
	seen := make(map[int]bool, len(have))
	for _, l := range have {
		seen[l] = true
	}
	for _, l := range add {
		if !seen[l] {
			have = append(have, l)
			seen[l] = true
		}
	}
	sort.Ints(have)
	return have
}
