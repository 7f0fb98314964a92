// Package parser decodes uploaded CSV and XLSX exports into header-keyed rows.
// It is a pure transformation of bytes to rows: no disk or network I/O.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptyFile    = errors.New("file is empty")
	ErrMalformedCSV = errors.New("malformed CSV")
	ErrNoSheets     = errors.New("workbook has no sheets")
	ErrNoRows       = errors.New("sheet has no rows")
)

// FileType identifies the upload format. Anything else is rejected upstream.
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
)

// FileTypeFromName derives the file type from an uploaded filename. The
// second return is false for any extension other than .csv and .xlsx.
func FileTypeFromName(filename string) (FileType, bool) {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		return FileTypeCSV, true
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		return FileTypeXLSX, true
	default:
		return "", false
	}
}

// Row is a single data row keyed by header name. Cells never go missing:
// absent trailing fields are stored as empty strings so mapping lookups are
// total over the header set.
type Row map[string]string

// Get returns the trimmed cell value for a header, or "" when unmapped.
func (r Row) Get(header string) string {
	return strings.TrimSpace(r[header])
}

// Document is a fully parsed file: ordered headers plus all data rows in
// original file order.
type Document struct {
	Headers []string
	Rows    []Row
}

// TotalRows reports the number of data rows in the file.
func (d *Document) TotalRows() int {
	return len(d.Rows)
}

// Parse decodes raw file bytes according to the declared file type.
func Parse(data []byte, fileType FileType) (*Document, error) {
	if fileType == FileTypeXLSX {
		return parseXLSX(data)
	}
	return parseCSV(data)
}

// parseCSV treats the first row as the header row and skips rows that are
// entirely empty (blank trailing lines are common in platform exports).
func parseCSV(data []byte) (*Document, error) {
	data = normalizeBytes(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headerRecord, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}

	headers := make([]string, len(headerRecord))
	for i, h := range headerRecord {
		headers[i] = strings.TrimSpace(h)
	}

	doc := &Document{Headers: headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if isEmptyRecord(record) {
			continue
		}
		doc.Rows = append(doc.Rows, recordToRow(headers, record))
	}

	return doc, nil
}

// recordToRow keys a raw record by header name. Records shorter than the
// header set fill the remaining columns with empty strings.
func recordToRow(headers []string, record []string) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(record) {
			row[h] = record[i]
		} else {
			row[h] = ""
		}
	}
	return row
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// normalizeBytes strips a UTF-8 BOM and falls back to latin-1 decoding for
// exports saved with legacy encodings.
func normalizeBytes(data []byte) []byte {
	data = stripUTF8BOM(data)
	if utf8.Valid(data) {
		return data
	}
	return decodeLatin1(data)
}

func stripUTF8BOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

func decodeLatin1(data []byte) []byte {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return []byte(string(runes))
}
