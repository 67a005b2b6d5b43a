package ledger

import (
	"fmt"

	"github.com/meisai-dev/meisai/internal/model"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	Bucket      string
	Row         int
	Description string
}

func (e ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("invariant %d [%s row %d]: %s", e.Invariant, e.Bucket, e.Row, e.Description)
	}
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.Bucket, e.Description)
}

// Validate enforces the aggregation invariants over records and the buckets
// built from them. The per-row balance chain needs no check here because
// Balances derives it from Opening and the amounts alone.
func Validate(records []model.Record, buckets []Bucket) []ValidationError {
	var errs []ValidationError

	// Invariant 1: Buckets partition the record sequence.
	want := make(map[model.Record]int, len(records))
	for _, r := range records {
		want[r]++
	}
	for i := range buckets {
		b := &buckets[i]
		for _, r := range b.Records {
			if want[r] == 0 {
				errs = append(errs, ValidationError{
					Invariant:   1,
					Bucket:      b.Key(),
					Row:         r.Row,
					Description: "record is not in the source sequence or appears in more than one bucket",
				})
				continue
			}
			want[r]--
		}
	}
	for _, r := range records {
		if want[r] > 0 {
			y, m := r.Period()
			errs = append(errs, ValidationError{
				Invariant:   1,
				Bucket:      fmt.Sprintf("%04d-%02d", y, m),
				Row:         r.Row,
				Description: "record missing from every bucket",
			})
			want[r] = 0
		}
	}

	for i := range buckets {
		b := &buckets[i]

		// Invariant 2: Buckets are unique and chronological.
		if i > 0 && !before(buckets[i-1], *b) {
			errs = append(errs, ValidationError{
				Invariant:   2,
				Bucket:      b.Key(),
				Description: fmt.Sprintf("bucket follows %s out of order", buckets[i-1].Key()),
			})
		}

		// Invariant 3: Opening balance carries forward.
		if i > 0 && b.Opening != buckets[i-1].Closing() {
			errs = append(errs, ValidationError{
				Invariant:   3,
				Bucket:      b.Key(),
				Description: fmt.Sprintf("opening %d != previous closing %d", b.Opening, buckets[i-1].Closing()),
			})
		}

		for j, r := range b.Records {
			// Invariant 4: Record dates fall within the bucket month.
			if y, m := r.Period(); y != b.Year || m != b.Month {
				errs = append(errs, ValidationError{
					Invariant:   4,
					Bucket:      b.Key(),
					Row:         r.Row,
					Description: fmt.Sprintf("date %s not in %s", r.Date.Format("2006-01-02"), b.Key()),
				})
			}

			// Invariant 5: Amounts are non-negative.
			if r.AmountIn < 0 || r.AmountOut < 0 {
				errs = append(errs, ValidationError{
					Invariant:   5,
					Bucket:      b.Key(),
					Row:         r.Row,
					Description: fmt.Sprintf("negative amount (in %d, out %d)", r.AmountIn, r.AmountOut),
				})
			}

			// Invariant 6: Records stay in date order.
			if j > 0 && r.Date.Before(b.Records[j-1].Date) {
				errs = append(errs, ValidationError{
					Invariant:   6,
					Bucket:      b.Key(),
					Row:         r.Row,
					Description: "record dated before its predecessor",
				})
			}
		}
	}

	return errs
}

// Mismatch is a row whose printed balance disagrees with the derived one.
type Mismatch struct {
	Row     int    `json:"row"`
	Date    string `json:"date"`
	Printed int64  `json:"printed"`
	Derived int64  `json:"derived"`
}

// Reconcile compares the bank's printed balances against the derived
// running balance. Rows without a printed balance are ignored.
func Reconcile(b *Bucket) []Mismatch {
	var out []Mismatch
	for i, bal := range b.Balances() {
		r := b.Records[i]
		if r.Balance == 0 || r.Balance == bal {
			continue
		}
		out = append(out, Mismatch{
			Row:     r.Row,
			Date:    r.Date.Format("2006-01-02"),
			Printed: r.Balance,
			Derived: bal,
		})
	}
	return out
}
