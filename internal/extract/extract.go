// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package extract pulls scannable text out of document formats whose raw
// bytes hide it: compressed PDF content streams and EXIF tags of images.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cardsearch/internal/detector"

	"github.com/h2non/filetype"
	"github.com/spf13/afero"
)

// headerSize is how much of a file filetype needs to recognise it.
const headerSize = 262

const (
	DefaultMaxDocumentSize = 64 << 20
	DefaultMaxPDFPages     = 50
)

// ErrUnsupported is returned for files no extractor handles.
var ErrUnsupported = errors.New("no text extractor for file type")

// Source is text recovered from one file.
type Source struct {
	Name string // detector.SourcePDF or detector.SourceEXIF
	Text []byte
}

// Extractor routes files to the PDF or EXIF extractor by content type.
type Extractor struct {
	Fs              afero.Fs
	MaxDocumentSize int64
	MaxPDFPages     int
}

// New returns an extractor with default limits.
func New(fs afero.Fs) *Extractor {
	return &Extractor{
		Fs:              fs,
		MaxDocumentSize: DefaultMaxDocumentSize,
		MaxPDFPages:     DefaultMaxPDFPages,
	}
}

// Sources returns the extracted text of path using default limits.
func Sources(fs afero.Fs, path string) ([]Source, error) {
	return New(fs).Sources(context.Background(), path)
}

// Sources sniffs path and returns its extracted text. Files of other types
// yield ErrUnsupported; files without any text yield no sources and no error.
func (e *Extractor) Sources(ctx context.Context, path string) ([]Source, error) {
	f, err := e.Fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if e.MaxDocumentSize > 0 && info.Size() > e.MaxDocumentSize {
		return nil, fmt.Errorf("%s: %d bytes exceeds document limit of %d", path, info.Size(), e.MaxDocumentSize)
	}

	head := make([]byte, headerSize)
	n, err := f.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	head = head[:n]

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kind, _ := filetype.Match(head)
	switch {
	case kind.Extension == "pdf":
		text, err := e.pdfText(f, info.Size())
		if err != nil {
			return nil, fmt.Errorf("pdf %s: %w", path, err)
		}
		return nonEmpty(detector.SourcePDF, text), nil

	case exifCapable(kind.Extension):
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		text, err := exifText(f)
		if err != nil {
			return nil, fmt.Errorf("exif %s: %w", path, err)
		}
		return nonEmpty(detector.SourceEXIF, text), nil
	}

	return nil, ErrUnsupported
}

func nonEmpty(name string, text []byte) []Source {
	if len(text) == 0 {
		return nil
	}
	return []Source{{Name: name, Text: text}}
}

// Supported reports whether the header identifies a type Sources handles.
func Supported(head []byte) bool {
	kind, _ := filetype.Match(head)
	return kind.Extension == "pdf" || exifCapable(kind.Extension)
}

func exifCapable(ext string) bool {
	switch ext {
	case "jpg", "tif", "heif", "cr2":
		return true
	}
	return false
}
