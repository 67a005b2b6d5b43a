// Package runlog keeps an append-only CSV history of conversion runs.
package runlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// FileName is the log written inside the output directory.
const FileName = "convert-log.csv"

// Entry records one month written by a conversion run.
type Entry struct {
	Timestamp time.Time
	Month     string
	Records   int
	In        int64
	Out       int64
	Closing   int64
	Output    string
	Sources   string
}

// Header is the first row of the log file.
var Header = []string{"timestamp", "month", "records", "in", "out", "closing", "output", "sources"}

const (
	numFields  = 8
	colTime    = 0
	colMonth   = 1
	colRecords = 2
	colIn      = 3
	colOut     = 4
	colClosing = 5
	colOutput  = 6
	colSources = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTime] = e.Timestamp.Format(time.RFC3339)
	row[colMonth] = e.Month
	row[colRecords] = strconv.Itoa(e.Records)
	row[colIn] = strconv.FormatInt(e.In, 10)
	row[colOut] = strconv.FormatInt(e.Out, 10)
	row[colClosing] = strconv.FormatInt(e.Closing, 10)
	row[colOutput] = e.Output
	row[colSources] = e.Sources
	return row
}

// unmarshalEntry converts a CSV row to an Entry.
func unmarshalEntry(row []string) (Entry, error) {
	if len(row) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(row))
	}

	ts, err := time.Parse(time.RFC3339, row[colTime])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", row[colTime], err)
	}
	records, err := strconv.Atoi(row[colRecords])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing records %q: %w", row[colRecords], err)
	}
	var amounts [3]int64
	for i, col := range []int{colIn, colOut, colClosing} {
		amounts[i], err = strconv.ParseInt(row[col], 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("parsing %s %q: %w", Header[col], row[col], err)
		}
	}

	return Entry{
		Timestamp: ts,
		Month:     row[colMonth],
		Records:   records,
		In:        amounts[0],
		Out:       amounts[1],
		Closing:   amounts[2],
		Output:    row[colOutput],
		Sources:   row[colSources],
	}, nil
}

// Append writes entries to dir/convert-log.csv, creating the file and its
// header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing run log: %w", err)
	}
	return f.Close()
}

// Read returns every entry in dir/convert-log.csv. A missing file yields no
// entries and no error.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, row := range rows[1:] {
		e, err := unmarshalEntry(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
