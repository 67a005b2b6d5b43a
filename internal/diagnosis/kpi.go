// Package diagnosis scores a business against fixed industry benchmarks.
// The same engine runs on figures extracted from a free-text P&L (Evaluate)
// and on totals derived from a classified bank ledger (Diagnose).
package diagnosis

import (
	"math"

	"github.com/shopspring/decimal"
)

// KPI names. Totals.Value knows how to compute each of them.
const (
	KPICogsRatio   = "cogs_ratio"
	KPILaborRatio  = "labor_ratio"
	KPIFixedRatio  = "fixed_ratio"
	KPIFeesRatio   = "fees_ratio"
	KPIOpMargin    = "op_margin"
	KPIGrossMargin = "gross_margin"
	KPIFLRatio     = "fl_ratio"
)

// KPI is one benchmarked ratio with its quartile thresholds. Q1, Median and
// Q3 are always ascending; LowerIsBetter says which end is good.
type KPI struct {
	Name          string  `yaml:"name"`
	Label         string  `yaml:"label"`
	Q1            float64 `yaml:"q1"`
	Median        float64 `yaml:"median"`
	Q3            float64 `yaml:"q3"`
	LowerIsBetter bool    `yaml:"lower_is_better"`
	// Tracked KPIs contribute penalties and advice to the score.
	Tracked bool   `yaml:"tracked"`
	Theme   string `yaml:"theme,omitempty"`
}

// Warn returns the bottom-quartile threshold: Q3 when lower is better, Q1
// otherwise.
func (k KPI) Warn() float64 {
	if k.LowerIsBetter {
		return k.Q3
	}
	return k.Q1
}

// Excess returns how far value sits past the warn threshold in the bad
// direction, or zero.
func (k KPI) Excess(value float64) float64 {
	var d float64
	if k.LowerIsBetter {
		d = value - k.Q3
	} else {
		d = k.Q1 - value
	}
	return math.Max(0, d)
}

// DefaultKPIs returns the veterinary/equine benchmark table.
func DefaultKPIs() []KPI {
	return []KPI{
		{Name: KPICogsRatio, Label: "仕入率", Q1: 0.22, Median: 0.27, Q3: 0.33, LowerIsBetter: true, Tracked: true, Theme: "仕入・原価管理"},
		{Name: KPILaborRatio, Label: "人件費率", Q1: 0.28, Median: 0.34, Q3: 0.40, LowerIsBetter: true, Tracked: true, Theme: "人件費・生産性"},
		{Name: KPIFixedRatio, Label: "固定費率", Q1: 0.18, Median: 0.22, Q3: 0.27, LowerIsBetter: true, Tracked: true, Theme: "固定費削減"},
		{Name: KPIOpMargin, Label: "営業利益率", Q1: 0.05, Median: 0.12, Q3: 0.20, Tracked: true, Theme: "収益改善"},
		{Name: KPIGrossMargin, Label: "粗利率", Q1: 0.50, Median: 0.65, Q3: 0.70},
	}
}

// Rank places a value within a KPI's quartiles.
type Rank string

const (
	RankTop         Rank = "top"
	RankAboveMedian Rank = "above_median"
	RankBelowMedian Rank = "below_median"
	RankBottom      Rank = "bottom"
)

// RankOf ranks value against k. Boundaries are inclusive toward the better
// rank.
func RankOf(value float64, k KPI) Rank {
	if k.LowerIsBetter {
		switch {
		case value <= k.Q1:
			return RankTop
		case value <= k.Median:
			return RankAboveMedian
		case value <= k.Q3:
			return RankBelowMedian
		default:
			return RankBottom
		}
	}
	switch {
	case value >= k.Q3:
		return RankTop
	case value >= k.Median:
		return RankAboveMedian
	case value >= k.Q1:
		return RankBelowMedian
	default:
		return RankBottom
	}
}

// Deviation returns the percentage deviation of value from median, or zero
// when median is zero.
func Deviation(value, median float64) float64 {
	if median == 0 {
		return 0
	}
	return (value - median) / median * 100
}

// round1 rounds half away from zero to one decimal place.
func round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

// KPIResult is one evaluated KPI.
type KPIResult struct {
	Name          string  `json:"name"`
	Label         string  `json:"label"`
	Actual        float64 `json:"actual"`
	Q1            float64 `json:"q1"`
	Median        float64 `json:"median"`
	Q3            float64 `json:"q3"`
	LowerIsBetter bool    `json:"lower_is_better"`
	Rank          Rank    `json:"rank"`
	DeviationPct  float64 `json:"deviation_pct"`
	Status        Status  `json:"status"`
}

// Status is a tracked KPI's standing against its warn threshold.
// Untracked KPIs are always StatusOK.
type Status string

const (
	StatusOK       Status = "ok"
	StatusOver     Status = "over"
	StatusCritical Status = "critical"
)
