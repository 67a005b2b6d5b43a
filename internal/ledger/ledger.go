// Package ledger groups classified records into monthly buckets and derives
// running balances, rollups and summaries from them.
package ledger

import (
	"sort"

	"github.com/meisai-dev/meisai/internal/model"
	"github.com/meisai-dev/meisai/internal/period"
)

// Bucket holds one calendar month of records in ledger order.
type Bucket struct {
	Year    int
	Month   int
	Records []model.Record
	Opening int64
}

// Key returns the bucket's month as "YYYY-MM".
func (b *Bucket) Key() string {
	return period.Key(b.Year, b.Month)
}

// Label returns the bucket's month as "YYYY年M月".
func (b *Bucket) Label() string {
	return period.Label(b.Year, b.Month)
}

// Balances returns the running balance after each record, seeded by Opening.
// The printed Balance of each record is not consulted.
func (b *Bucket) Balances() []int64 {
	out := make([]int64, len(b.Records))
	bal := b.Opening
	for i, r := range b.Records {
		bal += r.Net()
		out[i] = bal
	}
	return out
}

// In returns the sum of deposits.
func (b *Bucket) In() int64 {
	var n int64
	for _, r := range b.Records {
		if r.AmountIn > 0 {
			n += r.AmountIn
		}
	}
	return n
}

// Out returns the sum of withdrawals.
func (b *Bucket) Out() int64 {
	var n int64
	for _, r := range b.Records {
		if r.AmountOut > 0 {
			n += r.AmountOut
		}
	}
	return n
}

// Net returns In - Out.
func (b *Bucket) Net() int64 {
	return b.In() - b.Out()
}

// Closing returns the running balance after the last record.
func (b *Bucket) Closing() int64 {
	return b.Opening + b.Net()
}

// Aggregate groups records by (year, month). Records must already be in
// ledger order; buckets come back in chronological order and keep that order
// within each month. Each bucket opens at the previous bucket's closing
// balance. The first bucket's opening is inferred from its first record.
func Aggregate(records []model.Record) []Bucket {
	index := make(map[[2]int]int)
	var buckets []Bucket
	for _, r := range records {
		y, m := r.Period()
		k := [2]int{y, m}
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Year: y, Month: m})
		}
		buckets[i].Records = append(buckets[i].Records, r)
	}

	sortBuckets(buckets)

	for i := range buckets {
		if i == 0 {
			buckets[i].Opening = inferOpening(buckets[i].Records[0])
			continue
		}
		buckets[i].Opening = buckets[i-1].Closing()
	}
	return buckets
}

// inferOpening backs the balance before first out of its printed balance.
func inferOpening(first model.Record) int64 {
	switch {
	case first.IsInbound():
		return first.Balance - first.AmountIn
	case first.IsOutbound():
		return first.Balance + first.AmountOut
	default:
		return 0
	}
}

func sortBuckets(buckets []Bucket) {
	sort.Slice(buckets, func(i, j int) bool { return before(buckets[i], buckets[j]) })
}

func before(a, b Bucket) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Month < b.Month
}

// Ledger bundles a record sequence with its monthly buckets.
type Ledger struct {
	Records []model.Record
	Buckets []Bucket
}

// New aggregates records into a Ledger.
func New(records []model.Record) *Ledger {
	return &Ledger{Records: records, Buckets: Aggregate(records)}
}

// ForMonth returns the bucket for (year, month), or nil.
func (l *Ledger) ForMonth(year, month int) *Bucket {
	for i := range l.Buckets {
		if l.Buckets[i].Year == year && l.Buckets[i].Month == month {
			return &l.Buckets[i]
		}
	}
	return nil
}

// ForKey returns the bucket for a "YYYY-MM" key, or nil.
func (l *Ledger) ForKey(key string) *Bucket {
	y, m, err := period.Parse(key)
	if err != nil {
		return nil
	}
	return l.ForMonth(y, m)
}

// In returns total deposits across all records.
func (l *Ledger) In() int64 {
	var n int64
	for i := range l.Buckets {
		n += l.Buckets[i].In()
	}
	return n
}

// Out returns total withdrawals across all records.
func (l *Ledger) Out() int64 {
	var n int64
	for i := range l.Buckets {
		n += l.Buckets[i].Out()
	}
	return n
}

// LossMonths counts buckets whose outflow exceeds their inflow.
func (l *Ledger) LossMonths() int {
	n := 0
	for i := range l.Buckets {
		if l.Buckets[i].Net() < 0 {
			n++
		}
	}
	return n
}

// Validate checks the ledger's invariants.
func (l *Ledger) Validate() []ValidationError {
	return Validate(l.Records, l.Buckets)
}
