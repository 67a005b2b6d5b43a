package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meisai-dev/meisai/internal/classify"
	"github.com/meisai-dev/meisai/internal/logger"
	"github.com/meisai-dev/meisai/internal/model"
)

// Logical columns. Only the date column is required.
const (
	ColDate        = "date"
	ColDescription = "description"
	ColIn          = "in"
	ColOut         = "out"
	ColBalance     = "balance"
)

// columnAliases lists accepted header names per logical column. The first
// alias present in the header wins.
var columnAliases = []struct {
	column  string
	aliases []string
}{
	{ColDate, []string{"日付", "date", "取引日", "Date", "Transaction Date"}},
	{ColDescription, []string{"摘要", "内容", "取引内容", "摘　要", "description", "Description", "content", "Content"}},
	{ColIn, []string{"入金金額", "入金", "入金額", "deposit amount", "Deposit Amount", "deposit", "Deposit"}},
	{ColOut, []string{"出金金額", "出金", "出金額", "withdrawal amount", "Withdrawal Amount", "withdrawal", "Withdrawal"}},
	{ColBalance, []string{"残高", "balance", "Balance"}},
}

// dateFormats accept unpadded months and days as well as padded ones.
var dateFormats = []string{"20060102", "2006/1/2", "2006-1-2"}

// SkipReason explains why a data row produced no record.
type SkipReason string

const (
	SkipEmptyDate SkipReason = "empty date"
	SkipBadDate   SkipReason = "unrecognised date"
	SkipBadAmount SkipReason = "malformed amount"
)

// Stats summarises one parse.
type Stats struct {
	Encoding string
	Rows     int
	Parsed   int
	Skipped  int
	Reasons  map[SkipReason]int
}

// columns holds resolved header indexes; -1 marks an absent column.
type columns map[string]int

func resolveColumns(header []string) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, ok := pos[h]; !ok {
			pos[h] = i
		}
	}
	cols := make(columns, len(columnAliases))
	for _, c := range columnAliases {
		cols[c.column] = -1
		for _, alias := range c.aliases {
			if i, ok := pos[alias]; ok {
				cols[c.column] = i
				break
			}
		}
	}
	if cols[ColDate] < 0 {
		return nil, &SchemaError{Column: ColDate, Header: header}
	}
	return cols, nil
}

func (c columns) get(rec []string, column string) string {
	i := c[column]
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// BankParser reads Japanese and English bank statement exports and
// classifies each row.
type BankParser struct {
	Classifier *classify.Classifier
	Logger     *slog.Logger
}

// NewBankParser creates a parser. Nil arguments select the default rule book
// and slog.Default.
func NewBankParser(c *classify.Classifier, l *slog.Logger) *BankParser {
	return &BankParser{Classifier: c, Logger: l}
}

var (
	defaultClassifierOnce sync.Once
	defaultClassifier     *classify.Classifier
)

func (p *BankParser) classifier() *classify.Classifier {
	if p.Classifier != nil {
		return p.Classifier
	}
	defaultClassifierOnce.Do(func() { defaultClassifier = classify.Default() })
	return defaultClassifier
}

func (p *BankParser) logger() *slog.Logger {
	return logger.WithComponent(p.Logger, "importer")
}

// Format returns the parser name.
func (p *BankParser) Format() string { return "bank" }

// Parse reads a bank CSV and returns classified records sorted by date.
func (p *BankParser) Parse(r io.Reader) ([]model.Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading bank CSV: %w", err)
	}
	recs, _, err := p.ParseBytes(raw)
	return recs, err
}

// ParseBytes decodes raw, parses every data row and returns the records in
// stable date order along with parse statistics.
func (p *BankParser) ParseBytes(raw []byte) ([]model.Record, Stats, error) {
	stats := Stats{Reasons: make(map[SkipReason]int)}

	text, enc, err := Decode(raw)
	if err != nil {
		return nil, stats, err
	}
	stats.Encoding = enc

	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, &SchemaError{Column: ColDate}
	}
	if err != nil {
		return nil, stats, fmt.Errorf("reading bank CSV header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, stats, err
	}

	log := p.logger()
	cls := p.classifier()

	var recs []model.Record
	for row := 1; ; row++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("reading bank CSV row %d: %w", row, err)
		}
		stats.Rows++

		rec, skip := parseBankRow(fields, cols)
		if skip != "" {
			stats.Skipped++
			stats.Reasons[skip]++
			log.Debug("row skipped", "row", row, "reason", string(skip))
			continue
		}
		rec.Row = row
		rec.Classification = cls.Classify(rec.Description, rec.AmountIn, rec.AmountOut)
		recs = append(recs, rec)
	}
	stats.Parsed = len(recs)

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Date.Before(recs[j].Date)
	})

	log.Info("bank CSV parsed",
		"encoding", enc, "rows", stats.Rows, "parsed", stats.Parsed, "skipped", stats.Skipped)
	return recs, stats, nil
}

// parseBankRow returns a record, or the reason the row was skipped.
func parseBankRow(fields []string, cols columns) (model.Record, SkipReason) {
	dateStr := strings.TrimSpace(strings.ReplaceAll(cols.get(fields, ColDate), `"`, ""))
	if dateStr == "" {
		return model.Record{}, SkipEmptyDate
	}
	date, ok := parseDate(dateStr)
	if !ok {
		return model.Record{}, SkipBadDate
	}

	var amounts [3]int64
	for i, col := range []string{ColIn, ColOut, ColBalance} {
		v, err := parseAmount(cols.get(fields, col))
		if err != nil {
			return model.Record{}, SkipBadAmount
		}
		amounts[i] = v
	}
	if amounts[0] < 0 || amounts[1] < 0 {
		return model.Record{}, SkipBadAmount
	}

	return model.Record{
		Date:        date,
		Description: strings.TrimSpace(cols.get(fields, ColDescription)),
		AmountIn:    amounts[0],
		AmountOut:   amounts[1],
		Balance:     amounts[2],
	}, ""
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount reads a whole yen amount. Thousands separators and quotes are
// ignored; an empty cell is zero.
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, `"`, "")
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("amount %q is not a whole number", s)
	}
	bi := d.BigInt()
	if !bi.IsInt64() {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return bi.Int64(), nil
}
