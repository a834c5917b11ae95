// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"
	"testing"

	"cardsearch/internal/detector"
	"cardsearch/internal/scanner"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	visa       = "4539578763621486"
	mastercard = "5212345678900004"
)

func scanned(t *testing.T, path, content string) *scanner.Outcome {
	t.Helper()
	memFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(memFs, path, []byte(content), 0644))

	out, err := scanner.New(memFs, scanner.DefaultOptions()).Scan(context.Background(), path, nil)
	require.NoError(t, err)
	return out
}

func TestFileSink_WritesAggregateLog(t *testing.T) {
	memFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(memFs, "/var/log/cardsearch.log", []byte("stale contents\n"), 0644))

	s, err := NewFileSink(memFs, "/var/log/cardsearch.log")
	require.NoError(t, err)

	require.NoError(t, s.Summary(scanned(t, "/data/a.txt", visa+" and "+mastercard)))
	require.NoError(t, s.Summary(scanned(t, "/data/empty.txt", "nothing")))
	require.NoError(t, s.Match(detector.Match{}))
	require.NoError(t, s.Close())

	got, err := afero.ReadFile(memFs, "/var/log/cardsearch.log")
	require.NoError(t, err)
	assert.Equal(t, "Found 2 matches in /data/a.txt\n"+visa+"\n"+mastercard+"\n", string(got))

	info, err := memFs.Stat("/var/log/cardsearch.log")
	require.NoError(t, err)
	assert.Equal(t, "/var/log/cardsearch.log", s.Path())
	assert.NotZero(t, info.Size())
}

func TestFileSink_OpenFailure(t *testing.T) {
	ro := afero.NewReadOnlyFs(afero.NewMemMapFs())

	_, err := NewFileSink(ro, "/out.log")
	require.Error(t, err)

	var initErr *InitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, "file", initErr.Sink)
	assert.Equal(t, "/out.log", initErr.Target)
	assert.Contains(t, err.Error(), "cannot open file sink /out.log")
}

var errDiskFull = errors.New("no space left on device")

type fullFile struct{ afero.File }

func (fullFile) Write([]byte) (int, error)       { return 0, errDiskFull }
func (fullFile) WriteString(string) (int, error) { return 0, errDiskFull }

type fullFs struct{ afero.Fs }

func (f fullFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return fullFile{file}, nil
}

func TestFileSink_WriteFailure(t *testing.T) {
	s, err := NewFileSink(fullFs{afero.NewMemMapFs()}, "/out.log")
	require.NoError(t, err)

	err = s.Summary(scanned(t, "/data/a.txt", visa))
	require.ErrorIs(t, err, errDiskFull)
	assert.Contains(t, err.Error(), "failed to flush /out.log")

	// more values than the write buffer holds fail on the write itself
	many := strings.TrimSpace(strings.Repeat(visa+" ", 300))
	err = s.Summary(scanned(t, "/data/b.txt", many))
	require.ErrorIs(t, err, errDiskFull)
	assert.Contains(t, err.Error(), "/data/b.txt")
}

func TestFileSink_ConcurrentSummaries(t *testing.T) {
	memFs := afero.NewMemMapFs()
	s, err := NewFileSink(memFs, "/out.log")
	require.NoError(t, err)

	out := scanned(t, "/data/a.txt", visa)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Summary(out))
		}()
	}
	wg.Wait()
	require.NoError(t, s.Close())

	got, err := afero.ReadFile(memFs, "/out.log")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("Found 1 matches in /data/a.txt\n"+visa+"\n", 8), string(got))
}

func TestConsoleSink_Verbose(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(ConsoleOptions{Writer: &buf})

	out := scanned(t, "/data/a.txt", "card: "+visa+" exp 12/29")
	require.NoError(t, s.Match(out.Matches[0]))
	require.NoError(t, s.Summary(out))

	assert.Equal(t, "/data/a.txt:6 [Visa] "+visa+"  ...card: ["+visa+"] exp 12/29...\n", buf.String())
}

func TestConsoleSink_ExtractedSource(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(ConsoleOptions{Writer: &buf, NoColor: true})

	m := scanned(t, "/docs/a.pdf", visa).Matches[0]
	m.Source = detector.SourcePDF
	require.NoError(t, s.Match(m))

	assert.True(t, strings.HasPrefix(buf.String(), "/docs/a.pdf:pdf:0 [Visa] "), buf.String())
}

func TestConsoleSink_Quiet(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(ConsoleOptions{Writer: &buf, Quiet: true})

	out := scanned(t, "/data/a.txt", visa+"\n"+visa)
	require.NoError(t, s.Match(out.Matches[0]))
	require.NoError(t, s.Summary(out))
	require.NoError(t, s.Summary(scanned(t, "/data/none.txt", "")))

	assert.Equal(t, "Found 2 matches in /data/a.txt\n", buf.String())
}

type recordingSink struct {
	matches, summaries, closes int
	err                        error
}

func (r *recordingSink) Match(detector.Match) error {
	r.matches++
	return r.err
}

func (r *recordingSink) Summary(*scanner.Outcome) error {
	r.summaries++
	return r.err
}

func (r *recordingSink) Close() error {
	r.closes++
	return r.err
}

func TestMulti(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: fs.ErrClosed}
	m := Multi{a, b}

	assert.ErrorIs(t, m.Match(detector.Match{}), fs.ErrClosed)
	assert.ErrorIs(t, m.Summary(&scanner.Outcome{}), fs.ErrClosed)
	assert.ErrorIs(t, m.Close(), fs.ErrClosed)

	for _, r := range []*recordingSink{a, b} {
		assert.Equal(t, 1, r.matches)
		assert.Equal(t, 1, r.summaries)
		assert.Equal(t, 1, r.closes)
	}

	assert.NoError(t, Multi{a}.Close())
}
