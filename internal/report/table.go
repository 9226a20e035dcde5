package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

const (
	ColumnFilename   = "filename"
	ColumnScore      = "score"
	ColumnFeedback   = "feedback"
	ColumnHighlights = "highlights"

	ExportFilename = "screening_results.csv"
	ExportMIMEType = "text/csv"

	highlightSeparator = ", "
)

// Columns is the fixed column order of the table and the CSV export.
var Columns = []string{ColumnFilename, ColumnScore, ColumnFeedback, ColumnHighlights}

var ErrInvalidHeader = errors.New("unexpected csv header")

// Table is the rendered form of the records. Every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Export is a downloadable serialization of a Table.
type Export struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Assemble builds the table and its CSV export. Rows keep the record order.
func Assemble(records []Record) (*Table, *Export, error) {
	table := &Table{
		Columns: append([]string(nil), Columns...),
		Rows:    make([][]string, 0, len(records)),
	}

	for _, r := range records {
		table.Rows = append(table.Rows, []string{
			r.Filename,
			FormatScore(r.Score),
			r.Feedback,
			strings.Join(r.Highlights, highlightSeparator),
		})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Columns); err != nil {
		return nil, nil, fmt.Errorf("writing csv header: %w", err)
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return nil, nil, fmt.Errorf("writing csv rows: %w", err)
	}

	return table, &Export{
		Filename: ExportFilename,
		MIMEType: ExportMIMEType,
		Data:     buf.Bytes(),
	}, nil
}

// FormatScore renders a score with the fewest digits that represent it.
// A nil score renders as an empty cell.
func FormatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return strconv.FormatFloat(*score, 'f', -1, 64)
}

// ReadCSV parses an export back into a table.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Columns)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidHeader)
	}

	header := rows[0]
	for i, column := range Columns {
		if strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")) != column {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrInvalidHeader, i+1, header[i], column)
		}
	}

	return &Table{
		Columns: append([]string(nil), Columns...),
		Rows:    rows[1:],
	}, nil
}

// Render writes the table as aligned text.
func Render(w io.Writer, table *Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, strings.ToUpper(strings.Join(table.Columns, "\t"))); err != nil {
		return err
	}

	for _, row := range table.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.Join(strings.Fields(cell), " ")
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}

	return tw.Flush()
}
