// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package card

import "sort"

// Candidate length bounds shared by the extractor and the rule table.
const (
	MinCandidateLen = 12
	MaxCandidateLen = 19
)

// PrefixRange is an inclusive range of leading-digit values.
type PrefixRange struct {
	Lo int
	Hi int
}

// Rule describes one issuer numbering family: the first Width digits of a
// number must fall inside one of Ranges and the number length must be one of
// Lengths.
type Rule struct {
	Scheme  string
	Width   int
	Ranges  []PrefixRange
	Lengths []int
}

// Matches reports whether digits has this rule's prefix and length.
// digits must contain only ASCII digits.
func (r Rule) Matches(digits string) bool {
	if len(digits) < r.Width || !r.allowsLength(len(digits)) {
		return false
	}

	prefix := leadingValue(digits, r.Width)
	for _, rng := range r.Ranges {
		if prefix >= rng.Lo && prefix <= rng.Hi {
			return true
		}
	}
	return false
}

func (r Rule) allowsLength(n int) bool {
	for _, l := range r.Lengths {
		if l == n {
			return true
		}
	}
	return false
}

func leadingValue(digits string, width int) int {
	v := 0
	for i := 0; i < width; i++ {
		v = v*10 + int(digits[i]-'0')
	}
	return v
}

// Scheme names as reported in match records.
const (
	SchemeAmex               = "Amex"
	SchemeBankcard           = "Bankcard"
	SchemeDinersCarteBlanche = "Diners Club Carte Blanche"
	SchemeDinersIntl         = "Diners Club International"
	SchemeDinersUSCanada     = "Diners Club US & Canada"
	SchemeDiscover           = "Discover"
	SchemeInstaPayment       = "InstaPayment"
	SchemeJCB                = "JCB"
	SchemeMaestro            = "Maestro"
	SchemeMasterCard         = "MasterCard"
	SchemeSolo               = "Solo"
	SchemeSwitch             = "Switch"
	SchemeVisa               = "Visa"
	SchemeVisaElectron       = "Visa Electron"
)

func only(values ...int) []PrefixRange {
	ranges := make([]PrefixRange, 0, len(values))
	for _, v := range values {
		ranges = append(ranges, PrefixRange{Lo: v, Hi: v})
	}
	return ranges
}

func span(lo, hi int) []PrefixRange {
	return []PrefixRange{{Lo: lo, Hi: hi}}
}

func lengths(values ...int) []int {
	return values
}

func lengthsBetween(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		out = append(out, n)
	}
	return out
}

// DefaultRules returns the built-in issuer table in declaration order.
// The returned slice is a fresh copy.
func DefaultRules() []Rule {
	return []Rule{
		{SchemeAmex, 2, only(34, 37), lengths(15)},
		{SchemeBankcard, 4, only(5610), lengths(16)},
		{SchemeBankcard, 6, span(560221, 560224), lengths(16)},
		{SchemeDinersCarteBlanche, 3, span(300, 304), lengths(14)},
		{SchemeDinersIntl, 2, only(36), lengths(14)},
		{SchemeDinersUSCanada, 2, only(54), lengths(16)},
		{SchemeDiscover, 4, only(6011), lengths(16)},
		{SchemeDiscover, 6, span(622126, 622924), lengths(16)},
		{SchemeDiscover, 3, span(644, 648), lengths(16)},
		{SchemeDiscover, 2, only(65), lengths(16)},
		{SchemeInstaPayment, 3, span(637, 638), lengths(16)},
		{SchemeJCB, 4, span(3528, 3588), lengths(16)},
		{SchemeMaestro, 4, only(5018, 5020, 5038, 6304, 6759, 6761, 6763), lengthsBetween(12, 18)},
		{SchemeMasterCard, 2, span(51, 54), lengths(16)},
		{SchemeSolo, 4, only(6334, 6767), lengths(16, 18, 19)},
		{SchemeSwitch, 4, only(4903, 4905, 4911, 4936, 6333, 6759), lengths(16, 18, 19)},
		{SchemeSwitch, 6, only(564182, 633110), lengths(16, 18, 19)},
		{SchemeVisa, 1, only(4), lengths(16)},
		{SchemeVisaElectron, 4, only(4026, 4508, 4844, 4913, 4917), lengths(16)},
		{SchemeVisaElectron, 6, only(417500), lengths(16)},
	}
}

// orderRules puts wider prefixes first so a short prefix such as Visa's "4"
// never masks a more specific family. Ties keep declaration order.
func orderRules(rules []Rule) []Rule {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Width > ordered[j].Width
	})
	return ordered
}
