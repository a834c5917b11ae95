// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfcpuInit sync.Once

// validationConfig keeps pdfcpu away from the user's config directory.
func validationConfig() *model.Configuration {
	pdfcpuInit.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

type readSeekerAt interface {
	io.ReaderAt
	io.ReadSeeker
}

// pdfText validates the document structure with pdfcpu, then collects the
// plain text of up to MaxPDFPages pages with ledongthuc/pdf. Pages that fail
// to decode are skipped.
func (e *Extractor) pdfText(f readSeekerAt, size int64) (text []byte, err error) {
	// ledongthuc/pdf reports malformed objects by panicking.
	defer func() {
		if r := recover(); r != nil {
			text, err = nil, fmt.Errorf("malformed document: %v", r)
		}
	}()

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if err := api.Validate(f, validationConfig()); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}

	r, err := pdf.NewReader(f, size)
	if err != nil {
		return nil, err
	}

	pages := r.NumPage()
	if e.MaxPDFPages > 0 && pages > e.MaxPDFPages {
		pages = e.MaxPDFPages
	}

	var buf bytes.Buffer
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(pageText)
	}

	return buf.Bytes(), nil
}
