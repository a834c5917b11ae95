// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

//go:build !windows && !plan9

package sink

import (
	"testing"

	"cardsearch/internal/detector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyslog struct {
	info   []string
	closed bool
}

func (f *fakeSyslog) Write(p []byte) (int, error) { return len(p), nil }
func (f *fakeSyslog) Debug(string) error { return nil }
func (f *fakeSyslog) Warning(string) error { return nil }
func (f *fakeSyslog) Err(string) error { return nil }
func (f *fakeSyslog) Emerg(string) error { return nil }
func (f *fakeSyslog) Crit(string) error { return nil }

func (f *fakeSyslog) Info(m string) error {
	f.info = append(f.info, m)
	return nil
}

func (f *fakeSyslog) Close() error {
	f.closed = true
	return nil
}

func TestSyslogSink_SummaryOnly(t *testing.T) {
	fake := &fakeSyslog{}
	s := newSyslogSink(fake, fake)

	out := scanned(t, "/data/a.txt", visa+" "+visa)
	require.NoError(t, s.Match(out.Matches[0]))
	require.NoError(t, s.Summary(out))
	require.NoError(t, s.Summary(scanned(t, "/data/none.txt", "")))
	require.NoError(t, s.Close())

	require.Len(t, fake.info, 1)
	entry := fake.info[0]
	assert.Contains(t, entry, `"message":"Found 2 matches in /data/a.txt"`)
	assert.Contains(t, entry, `"matches":2`)
	assert.Contains(t, entry, `"unique":1`)
	assert.NotContains(t, entry, visa)
	assert.True(t, fake.closed)
	assert.Equal(t, detector.SourceRaw, out.Matches[0].Source)
}
