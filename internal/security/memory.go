// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package security

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// SecureString holds a card number with best-effort memory scrubbing on
// Clear.
//
// Limitations: Go's garbage collector may move or copy memory at any time, and
// String() returns an immutable copy that cannot be zeroed. Clear() zeroes the
// internal byte slice, which reduces the window of exposure, but cannot
// guarantee that no copies exist elsewhere in the heap. Prefer Masked, Sum64
// and Len, which never copy the value out.
type SecureString struct {
	data []byte
}

// NewSecureString creates a new SecureString by copying s into a mutable byte slice.
func NewSecureString(s string) *SecureString {
	data := make([]byte, len(s))
	copy(data, s)
	return &SecureString{data: data}
}

// String returns the value, or "" for a nil or cleared SecureString.
func (ss *SecureString) String() string {
	if ss == nil {
		return ""
	}
	return string(ss.data)
}

// Len is the length of the value, 0 once cleared.
func (ss *SecureString) Len() int {
	if ss == nil {
		return 0
	}
	return len(ss.data)
}

// Masked replaces all but the last visible bytes with '*'. A value no
// longer than visible is masked entirely.
func (ss *SecureString) Masked(visible int) string {
	n := ss.Len()
	if n <= visible {
		return string(bytes.Repeat([]byte{'*'}, n))
	}

	out := make([]byte, n)
	for i := 0; i < n-visible; i++ {
		out[i] = '*'
	}
	copy(out[n-visible:], ss.data[n-visible:])
	return string(out)
}

// Sum64 is the xxhash of the value. It identifies equal values without
// keeping them around.
func (ss *SecureString) Sum64() uint64 {
	if ss == nil {
		return xxhash.Sum64(nil)
	}
	return xxhash.Sum64(ss.data)
}

// Clear overwrites the internal byte slice with zeros and releases it.
// This reduces the window of exposure but cannot guarantee all copies are erased.
func (ss *SecureString) Clear() {
	if ss == nil || ss.data == nil {
		return
	}
	for i := range ss.data {
		ss.data[i] = 0
	}
	ss.data = nil
}
