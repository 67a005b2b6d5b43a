// Package plparse pulls a reporting period, revenue and labelled line items
// out of pasted free-text P&L summaries.
package plparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"

	"github.com/meisai-dev/meisai/internal/period"
)

// Item is one labelled amount, in the order it first appeared.
type Item struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// Extraction is what Extract found. Zero values mean "not found".
type Extraction struct {
	Period  string `json:"period"`
	Year    int    `json:"year,omitempty"`
	Month   int    `json:"month,omitempty"`
	Revenue int64  `json:"revenue"`
	Items   []Item `json:"items"`
}

// HasPeriod reports whether a period was found.
func (e Extraction) HasPeriod() bool { return e.Year > 0 }

// RevenueKeywords are tried in order; the first one followed by a number
// supplies the revenue.
var RevenueKeywords = []string{"売上", "売上高", "収入", "入金", "Revenue", "Sales"}

// stopLabels are headings and totals that look like items but are not.
var stopLabels = labelSet(
	"入金", "出金", "合計", "収入", "売上", "売上高", "出費配分内訳", "入出費配分内訳",
	"Revenue", "Sales", "Total", "Subtotal", "Income",
)

func labelSet(labels ...string) map[string]bool {
	out := make(map[string]bool, len(labels))
	for _, l := range labels {
		out[l] = true
	}
	return out
}

const minLabelRunes = 2

var (
	periodRe  = regexp.MustCompile(`(20\d{2})[年/\-](\d{1,2})月?`)
	itemRe    = regexp.MustCompile(`^([^\d\n:]{1,15})\s+(\d+)\s*$`)
	revenueRe = revenuePatterns(RevenueKeywords)
)

func revenuePatterns(keywords []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		out[i] = regexp.MustCompile(regexp.QuoteMeta(kw) + `[\s:]*(\d+)`)
	}
	return out
}

var stripper = strings.NewReplacer(
	"　", " ",
	"：", ":",
	",", "",
	"¥", "",
	"￥", "",
	"円", "",
	"$", "",
	"\r", "",
)

// Normalize folds full-width ASCII to half-width (and half-width katakana to
// full-width), then drops currency marks and thousands separators.
func Normalize(text string) string {
	return stripper.Replace(width.Fold.String(text))
}

// NormalizeLabel folds a label the way Extract folds item labels, so
// lookup tables can be keyed consistently.
func NormalizeLabel(label string) string {
	return strings.TrimSpace(width.Fold.String(label))
}

// Extract parses text. It never fails: anything it cannot find is left at
// its zero value.
func Extract(text string) Extraction {
	t := Normalize(text)
	ext := Extraction{Items: []Item{}}

	for _, m := range periodRe.FindAllStringSubmatch(t, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			continue
		}
		ext.Year, ext.Month = year, month
		ext.Period = period.Label(year, month)
		break
	}

	for _, re := range revenueRe {
		m := re.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		if v, ok := parseAmount(m[1]); ok {
			ext.Revenue = v
			break
		}
	}

	seen := make(map[string]bool)
	for _, line := range strings.Split(t, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := itemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label := strings.TrimSpace(m[1])
		if stopLabels[label] || len([]rune(label)) < minLabelRunes || seen[label] {
			continue
		}
		v, ok := parseAmount(m[2])
		if !ok {
			continue
		}
		seen[label] = true
		ext.Items = append(ext.Items, Item{Label: label, Amount: v})
	}
	return ext
}

// parseAmount reads a run of ASCII digits, rejecting values beyond int64.
func parseAmount(s string) (int64, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	b := d.BigInt()
	if !b.IsInt64() {
		return 0, false
	}
	return b.Int64(), true
}
