// Package store persists measurement records as an append-only CSV file.
package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/devicelab-dev/surge-monitor/pkg/quote"
)

// TimeLayout is the format of the date_hour column, in local time.
const TimeLayout = "2006-01-02 15:04:05"

// Header is the first row of every log file.
var Header = []string{"date_hour", "route", "options"}

// CSVWriter appends records to a CSV file. Rows are never rewritten.
type CSVWriter struct {
	path string
	mu   sync.Mutex
}

// NewCSVWriter creates a writer for path. The file is created on first Append.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the file the writer appends to.
func (w *CSVWriter) Path() string {
	return w.path
}

// encodeQuotes renders the options column. HTML escaping is off so category
// names such as "Bolt & Go" stay readable.
func encodeQuotes(set quote.Set) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(set); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// Append writes one record, creating the parent directory and the header
// row when the file is missing or empty.
func (w *CSVWriter) Append(rec quote.Record) error {
	options, err := encodeQuotes(rec.Quotes)
	if err != nil {
		return fmt.Errorf("encode quotes: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat log: %w", err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(Header); err != nil {
			return err
		}
	}
	row := []string{rec.Timestamp.Format(TimeLayout), rec.Route, options}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return f.Close()
}

// ReadAll reads every record from a log file written by CSVWriter.
// Timestamps are parsed in local time.
func ReadAll(path string) ([]quote.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses records from r. The header row is required.
func Read(r io.Reader) ([]quote.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header[0] != Header[0] {
		return nil, fmt.Errorf("unexpected header %q", header)
	}

	var records []quote.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		ts, err := time.ParseInLocation(TimeLayout, row[0], time.Local)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var quotes quote.Set
		if err := json.Unmarshal([]byte(row[2]), &quotes); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, quote.Record{Timestamp: ts, Route: row[1], Quotes: quotes})
	}
}
