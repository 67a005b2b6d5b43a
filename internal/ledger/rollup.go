package ledger

import (
	"sort"

	"github.com/meisai-dev/meisai/internal/model"
)

// Unclassified is the rollup key for records without a subject.
const Unclassified = "未分類"

// Rollup sums one subject or category.
type Rollup struct {
	Key      string `json:"key"`
	Category string `json:"category,omitempty"`
	In       int64  `json:"in"`
	Out      int64  `json:"out"`
	Count    int    `json:"count"`
}

// Net returns In - Out.
func (r Rollup) Net() int64 { return r.In - r.Out }

// BySubject sums records per subject, largest volume first.
func BySubject(records []model.Record) []Rollup {
	return rollup(records, func(r model.Record) (string, string) {
		key := r.Subject
		if key == "" {
			key = Unclassified
		}
		return key, r.Category
	})
}

// ByCategory sums records per display category, largest volume first.
func ByCategory(records []model.Record) []Rollup {
	return rollup(records, func(r model.Record) (string, string) {
		key := r.Category
		if key == "" {
			key = Unclassified
		}
		return key, ""
	})
}

func rollup(records []model.Record, keyOf func(model.Record) (string, string)) []Rollup {
	index := make(map[string]int)
	var out []Rollup
	for _, r := range records {
		key, cat := keyOf(r)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, Rollup{Key: key, Category: cat})
		}
		out[i].Count++
		if r.AmountIn > 0 {
			out[i].In += r.AmountIn
		}
		if r.AmountOut > 0 {
			out[i].Out += r.AmountOut
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].In+out[i].Out > out[j].In+out[j].Out
	})
	return out
}

// MonthSummary is one row of the monthly overview.
type MonthSummary struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Opening int64   `json:"opening"`
	In      int64   `json:"in"`
	Out     int64   `json:"out"`
	Net     int64   `json:"net"`
	Closing int64   `json:"closing"`
	Ratio   float64 `json:"ratio"`
}

// Summary returns one MonthSummary per bucket. Ratio is In/Out, or zero for
// a month with no withdrawals.
func Summary(buckets []Bucket) []MonthSummary {
	out := make([]MonthSummary, len(buckets))
	for i := range buckets {
		b := &buckets[i]
		s := MonthSummary{
			Year:    b.Year,
			Month:   b.Month,
			Key:     b.Key(),
			Count:   len(b.Records),
			Opening: b.Opening,
			In:      b.In(),
			Out:     b.Out(),
			Net:     b.Net(),
			Closing: b.Closing(),
		}
		if s.Out > 0 {
			s.Ratio = float64(s.In) / float64(s.Out)
		}
		out[i] = s
	}
	return out
}
