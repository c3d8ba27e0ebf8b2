package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// TableReader turns an input stream into header-first rows.
type TableReader interface {
	CanRead(ext string) bool
	Read(r io.Reader, opt Options) ([][]string, error)
}

var registry []TableReader

// Register adds a table reader implementation to the registry.
func Register(tr TableReader) {
	registry = append(registry, tr)
}

func readerFor(ext string) (TableReader, bool) {
	for _, tr := range registry {
		if tr.CanRead(ext) {
			return tr, true
		}
	}
	return nil, false
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// ErrUnsupported indicates a table format with no registered reader.
var ErrUnsupported = errors.New("unsupported table format")

type csvReader struct{}

func (csvReader) CanRead(ext string) bool {
	return ext == ".csv" || ext == ".tsv" || ext == ".txt"
}

func (csvReader) Read(r io.Reader, opt Options) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = opt.delimiter()
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows), err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

type xlsxReader struct{}

func (xlsxReader) CanRead(ext string) bool { return ext == ".xlsx" }

// Read returns the rows of opt.Sheet, or of the first sheet when unset.
// Cells are read unformatted so number formats cannot round metrics, and
// serial dates in the start and end columns are converted to ISO dates.
func (xlsxReader) Read(r io.Reader, opt Options) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return rows, nil
	}
	date1904 := false
	if p, err := f.GetWorkbookProps(); err == nil && p.Date1904 != nil {
		date1904 = *p.Date1904
	}
	dateCols := map[int]bool{}
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && (h == strings.ToLower(opt.StartColumn) || h == strings.ToLower(opt.EndColumn)) {
			dateCols[i] = true
		}
	}
	for _, row := range rows[1:] {
		for i := range row {
			if dateCols[i] {
				row[i] = serialDate(row[i], date1904)
			}
		}
	}
	return rows, nil
}

// serialDate converts an Excel serial day number to "2006-01-02" (with the
// time of day when present). Other values are returned unchanged.
func serialDate(v string, date1904 bool) string {
	x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || x <= 0 {
		return v
	}
	t, err := excelize.ExcelDateToTime(x, date1904)
	if err != nil {
		return v
	}
	t = t.Round(time.Second)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
