package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// parseXLSX reads the first sheet of the workbook. Platform exports are
// single-sheet; additional sheets are ignored.
func parseXLSX(data []byte) (*Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	doc := &Document{Headers: headers}
	for _, record := range rows[1:] {
		if isEmptyRecord(record) {
			continue
		}
		doc.Rows = append(doc.Rows, recordToRow(headers, record))
	}
	if len(doc.Rows) == 0 {
		return nil, ErrNoRows
	}

	return doc, nil
}
