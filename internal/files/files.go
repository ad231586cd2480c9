// Package files is the file-selection boundary. Only PDFs get through;
// anything else is dropped without an error.
package files

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/sciencetwins/twins/internal/types"
)

const (
	// PDFContentType is the only accepted content type
	PDFContentType = "application/pdf"
	// MaxFileSize caps how much of a file is read
	MaxFileSize = 50 << 20
)

// Select reads the file at path. It returns (nil, false, nil) when the file
// is not a PDF. I/O errors are returned as such.
func Select(path string) (*types.File, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return SelectReader(filepath.Base(path), f)
}

// SelectReader is Select for an already opened stream
func SelectReader(name string, r io.Reader) (*types.File, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, false, fmt.Errorf("file %s exceeds %d MB", name, MaxFileSize>>20)
	}

	if !IsPDF(data) {
		return nil, false, nil
	}

	return &types.File{
		Name:        name,
		ContentType: PDFContentType,
		Data:        data,
		Pages:       PageCount(data),
	}, true, nil
}

// IsPDF sniffs the content; file extensions are not trusted
func IsPDF(data []byte) bool {
	return mimetype.Detect(data).Is(PDFContentType)
}

// PageCount returns the number of pages, or 0 when the document cannot be
// parsed. The server does the real extraction, so a broken PDF still passes.
func PageCount(data []byte) (pages int) {
	// the pdf reader panics on some malformed files
	defer func() {
		if recover() != nil {
			pages = 0
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return reader.NumPage()
}

// PlainText extracts the text layer of a PDF. Scanned documents yield an
// empty string.
func PlainText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(content); err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return buf.String(), nil
}
