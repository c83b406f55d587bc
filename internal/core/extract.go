package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extraction failure taxonomy. Every failure an upload can produce maps
// to exactly one of these sentinels; callers test with errors.Is.
var (
	// ErrNoTableFound means the file was readable but no table could be
	// located, or the extraction capability is unavailable.
	ErrNoTableFound = errors.New("no table found")

	// ErrNotImplemented marks the image path: JPEG uploads are accepted
	// by the UI but table recognition for them is not built yet.
	ErrNotImplemented = errors.New("image extraction not implemented")

	// ErrUnsupportedFormat covers every extension outside the known set.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// FileFormat is the closed set of upload formats the importer dispatches
// on. Unknown extensions are a distinct variant, not a fallthrough.
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatPDF
	FormatJPEG
)

func (f FileFormat) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatJPEG:
		return "jpeg"
	default:
		return "unknown"
	}
}

// DetectFormat classifies a filename by its extension, case-insensitively.
func DetectFormat(filename string) FileFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".jpg", ".jpeg":
		return FormatJPEG
	default:
		return FormatUnknown
	}
}

// TableReader is the external table-extraction capability. It scans a
// file on disk and returns every table it finds, possibly none.
type TableReader interface {
	ExtractTables(path string) ([]Dataset, error)
}

// Extractor turns raw upload bytes into a Dataset. The heavy lifting is
// delegated to a TableReader; the extractor owns format dispatch, the
// transient file, and column normalization.
type Extractor struct {
	reader TableReader
}

// NewExtractor returns an Extractor backed by r. A nil reader is legal
// and makes every PDF extraction fail with ErrNoTableFound.
func NewExtractor(r TableReader) *Extractor {
	return &Extractor{reader: r}
}

// Extract parses the uploaded bytes according to the filename's format.
//
// For PDFs the bytes are written to a temporary file, the reader locates
// all tables, and exactly the first one is kept. Multi-table PDFs lose
// every table after the first; that is the documented import policy, not
// an accident. The temporary file is removed on every exit path.
func (e *Extractor) Extract(data []byte, filename string) (*Dataset, error) {
	switch DetectFormat(filename) {
	case FormatPDF:
		return e.extractPDF(data)
	case FormatJPEG:
		return nil, ErrNotImplemented
	default:
		return nil, ErrUnsupportedFormat
	}
}

func (e *Extractor) extractPDF(data []byte) (*Dataset, error) {
	tmp, err := os.CreateTemp("", "serolab-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if e.reader == nil {
		return nil, ErrNoTableFound
	}

	tables, err := e.reader.ExtractTables(path)
	if err != nil {
		return nil, fmt.Errorf("extract tables: %w", err)
	}
	if len(tables) == 0 {
		return nil, ErrNoTableFound
	}

	first := tables[0].Clone()
	normalizeDonorColumn(first)
	return first, nil
}
