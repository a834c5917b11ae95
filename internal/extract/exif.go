// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"bytes"
	"io"
	"sort"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// exifWalker collects string-valued tags
type exifWalker struct {
	tags map[string]string
}

// Walk implements the exif.Walker interface
func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if tag == nil || tag.Format() != tiff.StringVal {
		return nil
	}
	v, err := tag.StringVal()
	if err != nil || v == "" {
		return nil
	}
	w.tags[string(name)] = v
	return nil
}

// exifText renders the string tags of an image as "Name: value" lines in
// name order. Images without EXIF data yield no text.
func exifText(r io.Reader) ([]byte, error) {
	x, err := exif.Decode(r)
	if err != nil {
		if exif.IsCriticalError(err) {
			return nil, nil
		}
	}
	if x == nil {
		return nil, nil
	}

	walker := &exifWalker{tags: make(map[string]string)}
	if err := x.Walk(walker); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(walker.tags))
	for name := range walker.tags {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(walker.tags[name])
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
