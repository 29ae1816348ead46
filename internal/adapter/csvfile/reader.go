// Package csvfile reads the delimited incident export from disk.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/couchcryptid/threat-data-etl/internal/domain"
)

// ReadFile loads the raw bytes of the source file. A missing path maps to
// domain.ErrNotFound so the caller can classify it without inspecting errno.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read source: %w", err)
	}
	return data, nil
}

// Parse decodes delimited content into a trimmed header and data rows.
// Malformed content maps to domain.ParseError. Rows are allowed to have
// fewer fields than the header; missing trailing cells read as empty.
func Parse(data []byte, delimiter rune) (header []string, rows [][]string, err error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err = r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, &domain.ParseError{Err: errors.New("empty file: no header row")}
		}
		return nil, nil, &domain.ParseError{Err: err}
	}
	header = domain.NormalizeHeader(header)

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, &domain.ParseError{Err: err}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
