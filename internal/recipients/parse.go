// Package recipients turns uploaded contact spreadsheets into recipient
// records and tracks which of them are selected for sending.
package recipients

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"recruitmail/internal/types"
)

// MaxUploadSize bounds the spreadsheet size accepted from the page.
const MaxUploadSize = 10 << 20 // 10 MB

// ParseFailureMessage is shown to the user for every unreadable upload.
const ParseFailureMessage = "Error reading file. Please ensure it's a valid Excel file."

// Column headers. The capitalized form wins when both are present and
// non-empty.
var columns = struct {
	name, email, company, position [2]string
}{
	name:     [2]string{"Name", "name"},
	email:    [2]string{"Email", "email"},
	company:  [2]string{"Company", "company"},
	position: [2]string{"Position", "position"},
}

var zipMagic = []byte("PK\x03\x04")

// ErrUnsupportedFormat is wrapped in the parse error for file types that are
// neither a workbook nor CSV.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Parse reads recipients from a spreadsheet. The format is chosen by the file
// extension (.csv, .xlsx, .xlsm) and falls back to sniffing the content. Only
// the first worksheet of a workbook is read; its first row is the header.
//
// Any failure is returned as a validation_invalid_file AppError; callers must
// leave their current collection untouched in that case.
func Parse(filename string, r io.Reader) ([]types.Recipient, error) {
	br := bufio.NewReader(r)

	var (
		rows [][]string
		err  error
	)
	switch format(filename, br) {
	case "csv":
		rows, err = readCSV(br)
	case "xlsx":
		rows, err = readWorkbook(br)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidFile, ParseFailureMessage, err)
	}

	return FromRows(rows), nil
}

// format determines the reader for filename, peeking at the content when the
// extension is not conclusive.
func format(filename string, br *bufio.Reader) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return "csv"
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return "xlsx"
	case ".xls":
		// Legacy BIFF workbooks are not readable.
		return ""
	}
	head, _ := br.Peek(len(zipMagic))
	if bytes.Equal(head, zipMagic) {
		return "xlsx"
	}
	return "csv"
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// FromRows converts a header row plus data rows into recipients. Blank rows
// are skipped and do not consume an ID; short rows read missing cells as
// empty strings.
func FromRows(rows [][]string) []types.Recipient {
	if len(rows) == 0 {
		return []types.Recipient{}
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	out := make([]types.Recipient, 0, len(rows)-1)
	for _, row := range rows[1:] {
		row := row
		if blank(row) {
			continue
		}
		cell := func(names [2]string) string {
			for _, n := range names {
				if i, ok := index[n]; ok && i < len(row) && row[i] != "" {
					return row[i]
				}
			}
			return ""
		}
		out = append(out, types.Recipient{
			ID:       len(out),
			Name:     cell(columns.name),
			Email:    cell(columns.email),
			Company:  cell(columns.company),
			Position: cell(columns.position),
		})
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
