package model

import "time"

// Classification is the subject assignment attached to a Record.
type Classification struct {
	Subject    string // 科目, e.g. "仕入"
	SubSubject string // 補助科目, may be empty
	Category   string // display grouping derived from Subject
	Label      string // "{category}  ›  {sub-subject or subject}"
}

// Record is one normalized bank statement row. Records are never mutated
// after ingestion; classification happens before the Record is built.
type Record struct {
	Row         int // 1-based data row in the source file
	Date        time.Time
	Description string
	AmountIn    int64
	AmountOut   int64
	Balance     int64 // as printed by the bank, informational only
	Classification
}

// IsInbound reports whether the record carries a deposit.
func (r Record) IsInbound() bool { return r.AmountIn > 0 }

// IsOutbound reports whether the record carries a withdrawal.
func (r Record) IsOutbound() bool { return r.AmountOut > 0 }

// Net returns AmountIn - AmountOut, ignoring negative amounts.
func (r Record) Net() int64 {
	var n int64
	if r.AmountIn > 0 {
		n += r.AmountIn
	}
	if r.AmountOut > 0 {
		n -= r.AmountOut
	}
	return n
}

// Period returns the (year, month) the record belongs to.
func (r Record) Period() (int, int) {
	return r.Date.Year(), int(r.Date.Month())
}
