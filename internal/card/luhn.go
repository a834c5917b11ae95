// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package card

// IsLuhnValid reports whether digits passes the Luhn (mod 10) checksum.
// The check digit is the rightmost digit; every second digit moving left is
// doubled and reduced by 9 when the product exceeds 9. Empty input and input
// containing anything other than ASCII digits is never valid.
func IsLuhnValid(digits string) bool {
	if digits == "" {
		return false
	}

	sum := 0
	isDouble := false

	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')

		if isDouble {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}

		sum += digit
		isDouble = !isDouble
	}

	return sum%10 == 0
}
