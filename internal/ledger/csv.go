package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// MonthHeader is the header of a month export. Its column names are
// accepted by the bank importer, so an export can be read back.
var MonthHeader = []string{"日付", "摘要", "出金", "入金", "残高", "科目", "分類"}

const (
	numFields  = 7
	dateFormat = "2006-01-02"
	colDate    = 0
	colDesc    = 1
	colOut     = 2
	colIn      = 3
	colBalance = 4
	colSubject = 5
	colLabel   = 6
)

// BOM is written ahead of exported CSV so spreadsheet software reads it as
// UTF-8.
const BOM = "\ufeff"

const (
	carryLabel = "前月繰越"
	totalLabel = "合計"
)

// WriteMonth writes one bucket as CSV: header, carry-forward row, one row
// per record with its running balance, and a totals row.
func WriteMonth(w io.Writer, b *Bucket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MonthHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	carry := make([]string, numFields)
	carry[colDesc] = carryLabel
	carry[colBalance] = strconv.FormatInt(b.Opening, 10)
	if err := cw.Write(carry); err != nil {
		return fmt.Errorf("writing carry-forward row: %w", err)
	}

	for i, bal := range b.Balances() {
		r := b.Records[i]
		row := make([]string, numFields)
		row[colDate] = r.Date.Format(dateFormat)
		row[colDesc] = r.Description
		row[colOut] = amount(r.AmountOut)
		row[colIn] = amount(r.AmountIn)
		row[colBalance] = strconv.FormatInt(bal, 10)
		row[colSubject] = r.Subject
		row[colLabel] = r.Label
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+3, err)
		}
	}

	total := make([]string, numFields)
	total[colDesc] = totalLabel
	total[colOut] = strconv.FormatInt(b.Out(), 10)
	total[colIn] = strconv.FormatInt(b.In(), 10)
	total[colBalance] = strconv.FormatInt(b.Closing(), 10)
	if err := cw.Write(total); err != nil {
		return fmt.Errorf("writing totals row: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// amount renders zero as an empty cell.
func amount(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

// FileName returns the export file name for a bucket.
func FileName(b *Bucket) string {
	return "meisai_" + b.Key() + ".csv"
}
