// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package card

// testNumbers are card numbers published by payment processors for
// integration testing. They are Luhn-valid and shaped like real cards, so
// they would otherwise be reported on every developer workstation.
var testNumbers = []string{
	// American Express
	"378282246310005",
	"371449635398431",
	"378734493671000",
	"340000000000009",
	// Australian BankCard
	"5610591081018250",
	// Diners Club
	"30569309025904",
	"38520000023237",
	// Discover
	"6011111111111117",
	"6011000990139424",
	// JCB
	"3530111333300000",
	"3566002020360505",
	// MasterCard
	"5555555555554444",
	"5105105105105100",
	"5100000000000008",
	// Visa
	"4111111111111111",
	"4012888888881881",
	"4222222222222",
	"4000000000000002",
	"4444444444444448",
	// Dankort (PBS)
	"5019717010103742",
	// Switch/Solo (Paymentech)
	"6331101999990016",
}

// TestNumbers returns a copy of the built-in test number list.
func TestNumbers() []string {
	out := make([]string, len(testNumbers))
	copy(out, testNumbers)
	return out
}

// IsTestNumber reports whether s is one of the published test numbers.
func IsTestNumber(s string) bool {
	_, ok := defaultClassifier.testNumbers[s]
	return ok
}
