package diagnosis

import "fmt"

// Advice severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityInfo   = "info"
)

// PrimaryCauseNone is reported when no KPI is past its warn threshold.
const PrimaryCauseNone = "none"

// Advice categories for the non-KPI entries.
const (
	AdviceLossMonths = "赤字月"
	AdviceFL         = "FL比率"
	AdviceOverall    = "総評"
)

// Advice is one improvement suggestion.
type Advice struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Scorecard is the output of Score.
type Scorecard struct {
	Score        int
	Verdict      Verdict
	KPIs         []KPIResult
	Advice       []Advice
	PrimaryCause string
}

// Score evaluates t against cfg. KPIs are only evaluated when there is
// revenue to divide by; loss months and the final clamp apply regardless.
func Score(t Totals, cfg *Config) Scorecard {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := cfg.Policy
	sc := Scorecard{Score: p.Start, PrimaryCause: PrimaryCauseNone}

	var worst float64
	if t.Revenue > 0 {
		for _, k := range cfg.KPIs {
			v, ok := t.Value(k.Name)
			if !ok {
				continue
			}
			res := KPIResult{
				Name:          k.Name,
				Label:         k.Label,
				Actual:        v,
				Q1:            k.Q1,
				Median:        k.Median,
				Q3:            k.Q3,
				LowerIsBetter: k.LowerIsBetter,
				Rank:          RankOf(v, k),
				DeviationPct:  round1(Deviation(v, k.Median)),
				Status:        StatusOK,
			}
			if k.Tracked {
				res.Status = status(v, k, p)
				switch res.Status {
				case StatusCritical:
					sc.Score -= p.CriticalPenalty
					sc.Advice = append(sc.Advice, Advice{
						Severity: SeverityHigh,
						Category: k.Label,
						Text: fmt.Sprintf("%sが危険水準です（%s / 目安%s）。%sを最優先で改善してください。",
							k.Label, pct(v), pct(k.Warn()), k.Theme),
					})
				case StatusOver:
					sc.Score -= p.OverPenalty
					lean := "やや高め"
					if !k.LowerIsBetter {
						lean = "やや低め"
					}
					sc.Advice = append(sc.Advice, Advice{
						Severity: SeverityMedium,
						Category: k.Label,
						Text: fmt.Sprintf("%sが%s（%s / 中央値%s）。%sの見直しを検討してください。",
							k.Label, lean, pct(v), pct(k.Median), k.Theme),
					})
				}
				if e := k.Excess(v); e > worst {
					worst = e
					sc.PrimaryCause = k.Name
				}
			}
			sc.KPIs = append(sc.KPIs, res)
		}
	}

	if t.LossMonths > 0 {
		sc.Score -= min(p.LossMonthCap, t.LossMonths*p.LossMonthPenalty)
		sev := SeverityMedium
		if t.LossMonths > p.LossMonthHighAfter {
			sev = SeverityHigh
		}
		sc.Advice = append(sc.Advice, Advice{
			Severity: sev,
			Category: AdviceLossMonths,
			Text:     fmt.Sprintf("赤字月が%dヶ月あります。月次収支管理の強化と、赤字月の支出パターンを確認してください。", t.LossMonths),
		})
	}

	if fl := t.FLRatio(); fl > p.FLThreshold {
		sc.Score -= p.FLPenalty
		heavier := "人件費"
		if t.CogsRatio() > t.LaborRatio() {
			heavier = "仕入コスト"
		}
		sc.Advice = append(sc.Advice, Advice{
			Severity: SeverityHigh,
			Category: AdviceFL,
			Text:     fmt.Sprintf("FL比率%sが%s超。%sの削減を先行させてください。", pct(fl), pctWhole(p.FLThreshold), heavier),
		})
	}

	if len(sc.Advice) == 0 && t.Net > 0 {
		sc.Advice = append(sc.Advice, Advice{
			Severity: SeverityInfo,
			Category: AdviceOverall,
			Text:     "全KPIが適正範囲内です。現在の経営スタイルと価格設定を維持してください。利益を設備・人材育成へ再投資する段階です。",
		})
	}

	sc.Score = max(p.Min, min(p.Max, sc.Score))
	sc.Verdict = VerdictFor(sc.Score, cfg.Bands)
	return sc
}

// status classifies a tracked KPI value against its warn threshold.
func status(v float64, k KPI, p Policy) Status {
	warn := k.Warn()
	if k.LowerIsBetter {
		switch {
		case v > warn*p.CriticalLowerFactor:
			return StatusCritical
		case v > warn:
			return StatusOver
		}
		return StatusOK
	}
	switch {
	case v < warn*p.CriticalHigherFactor:
		return StatusCritical
	case v < warn:
		return StatusOver
	}
	return StatusOK
}

// pct formats a ratio as a percentage with one decimal.
func pct(r float64) string {
	return fmt.Sprintf("%.1f%%", r*100)
}

func pctWhole(r float64) string {
	return fmt.Sprintf("%.0f%%", r*100)
}
