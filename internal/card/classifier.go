// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package card

// Reason explains a classification outcome.
type Reason int

const (
	ReasonConfirmed Reason = iota
	ReasonNotDigits
	ReasonRepeatedDigit
	ReasonTestNumber
	ReasonNoRule
	ReasonChecksum
)

func (r Reason) String() string {
	switch r {
	case ReasonConfirmed:
		return "confirmed"
	case ReasonNotDigits:
		return "not_digits"
	case ReasonRepeatedDigit:
		return "repeated_digit"
	case ReasonTestNumber:
		return "test_number"
	case ReasonNoRule:
		return "no_rule"
	case ReasonChecksum:
		return "checksum"
	default:
		return "unknown"
	}
}

// Verdict is the result of classifying one candidate.
type Verdict struct {
	Confirmed bool
	Scheme    string // set whenever a rule matched, even if the checksum failed
	Reason    Reason
}

// Classifier decides whether a digit string is a plausible card number.
// It holds only read-only state after construction and is safe for
// concurrent use.
type Classifier struct {
	rules       []Rule
	testNumbers map[string]struct{}
}

// NewClassifier returns a classifier using DefaultRules and TestNumbers.
func NewClassifier() *Classifier {
	return NewClassifierWithRules(DefaultRules(), TestNumbers())
}

// NewClassifierWithRules builds a classifier from an explicit table.
func NewClassifierWithRules(rules []Rule, testNumbers []string) *Classifier {
	c := &Classifier{
		rules:       orderRules(rules),
		testNumbers: make(map[string]struct{}, len(testNumbers)),
	}
	for _, n := range testNumbers {
		c.testNumbers[n] = struct{}{}
	}
	return c
}

// Rules returns the table in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Identify runs the full pipeline: repeated-digit rejection, test-number
// exclusion, first matching rule, then the Luhn checksum.
func (c *Classifier) Identify(candidate string) Verdict {
	if !allDigits(candidate) {
		return Verdict{Reason: ReasonNotDigits}
	}
	if isRepeatedDigit(candidate) {
		return Verdict{Reason: ReasonRepeatedDigit}
	}
	if _, ok := c.testNumbers[candidate]; ok {
		return Verdict{Reason: ReasonTestNumber}
	}

	for _, rule := range c.rules {
		if !rule.Matches(candidate) {
			continue
		}
		if !IsLuhnValid(candidate) {
			return Verdict{Scheme: rule.Scheme, Reason: ReasonChecksum}
		}
		return Verdict{Confirmed: true, Scheme: rule.Scheme, Reason: ReasonConfirmed}
	}

	return Verdict{Reason: ReasonNoRule}
}

// Classify reports whether candidate is a confirmed card number.
func (c *Classifier) Classify(candidate string) bool {
	return c.Identify(candidate).Confirmed
}

var defaultClassifier = NewClassifier()

// Classify reports whether candidate is a confirmed card number according to
// the built-in table.
func Classify(candidate string) bool {
	return defaultClassifier.Classify(candidate)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isRepeatedDigit catches 0000..., 1111... and the like.
func isRepeatedDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
