package diagnosis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/meisai-dev/meisai/internal/ledger"
	"github.com/meisai-dev/meisai/internal/plparse"
)

// Report sources.
const (
	SourcePL     = "pl_text"
	SourceLedger = "ledger"
)

// counterpartyRunes truncates counterparty names the way bank memos are
// usually cut.
const counterpartyRunes = 20

// Report is the full diagnosis. It serialises to snake_case JSON.
type Report struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Period string `json:"period"`

	Revenue   int64 `json:"revenue"`
	Cogs      int64 `json:"cogs"`
	Labor     int64 `json:"labor"`
	Fixed     int64 `json:"fixed"`
	Fees      int64 `json:"fees"`
	Selling   int64 `json:"selling"`
	Other     int64 `json:"other"`
	Tax       int64 `json:"tax"`
	Financing int64 `json:"financing"`

	GrossProfit     int64 `json:"gross_profit"`
	OperatingProfit int64 `json:"operating_profit"`
	NetApprox       int64 `json:"net_approx"`

	GrossMargin float64 `json:"gross_margin"`
	OpMargin    float64 `json:"op_margin"`
	CogsRatio   float64 `json:"cogs_ratio"`
	LaborRatio  float64 `json:"labor_ratio"`
	FixedRatio  float64 `json:"fixed_ratio"`
	FLRatio     float64 `json:"fl_ratio"`
	LossMonths  int     `json:"loss_months"`

	KPIs         []KPIResult `json:"kpis"`
	Score        int         `json:"score"`
	Verdict      Verdict     `json:"verdict"`
	PrimaryCause string      `json:"primary_cause"`
	Advice       []Advice    `json:"advice"`

	Bank              *BankCheck               `json:"bank,omitempty"`
	Items             []plparse.Item           `json:"items,omitempty"`
	Unmapped          []string                 `json:"unmapped,omitempty"`
	TopCounterparties map[Group][]Counterparty `json:"top_counterparties,omitempty"`
}

// BankCheck compares P&L revenue with the ledger month it claims to cover.
type BankCheck struct {
	BankIn     int64   `json:"bank_in"`
	BankOut    int64   `json:"bank_out"`
	BankNet    int64   `json:"bank_net"`
	EndBalance int64   `json:"end_balance"`
	DiffFromPL int64   `json:"diff_from_pl"`
	MatchPct   float64 `json:"match_pct"`
	Count      int     `json:"count"`
}

// Counterparty is a payee with its summed withdrawals.
type Counterparty struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// ValidationError reports input the engine cannot score.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}

const revenueGuidance = "売上が取得できませんでした。「売上 1,000,000」または「Revenue 1,000,000」の形式で入力してください。"

// Evaluate scores an extracted P&L. When bank is non-nil and the extraction
// names a period the ledger covers, the report carries a bank cross-check.
func Evaluate(ext plparse.Extraction, bank *ledger.Ledger, cfg *Config) (*Report, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if ext.Revenue <= 0 {
		return nil, &ValidationError{Field: "revenue", Message: revenueGuidance}
	}

	groups := labelIndex(cfg.LabelGroups)
	t := Totals{Revenue: ext.Revenue}
	var unmapped []string
	for _, it := range ext.Items {
		g, ok := groups[labelKey(it.Label)]
		if !ok {
			unmapped = append(unmapped, it.Label)
			continue
		}
		t.Add(g, it.Amount)
	}
	t.Net = t.NetApprox()
	if t.Net < 0 {
		t.LossMonths = 1
	}

	r := newReport(SourcePL, ext.Period, t, cfg)
	r.Items = ext.Items
	r.Unmapped = unmapped
	if bank != nil && ext.HasPeriod() {
		if b := bank.ForMonth(ext.Year, ext.Month); b != nil {
			r.Bank = crossCheck(ext.Revenue, b)
		}
	}
	return r, nil
}

// Diagnose scores a classified ledger. Revenue is every deposit; costs are
// withdrawals summed per subject through cfg.SubjectGroups.
func Diagnose(l *ledger.Ledger, cfg *Config) *Report {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	t := Totals{
		Revenue:    l.In(),
		Net:        l.In() - l.Out(),
		LossMonths: l.LossMonths(),
	}
	type payee struct {
		group Group
		name  string
	}
	spent := make(map[payee]int64)
	var order []payee
	for _, rec := range l.Records {
		if rec.AmountOut <= 0 {
			continue
		}
		g, ok := cfg.SubjectGroups[rec.Subject]
		if !ok {
			continue
		}
		t.Add(g, rec.AmountOut)
		if g != GroupCogs && g != GroupLabor {
			continue
		}
		k := payee{group: g, name: truncate(rec.Description, counterpartyRunes)}
		if _, seen := spent[k]; !seen {
			order = append(order, k)
		}
		spent[k] += rec.AmountOut
	}

	r := newReport(SourceLedger, period(l), t, cfg)
	for _, k := range order {
		if r.TopCounterparties == nil {
			r.TopCounterparties = make(map[Group][]Counterparty)
		}
		r.TopCounterparties[k.group] = append(r.TopCounterparties[k.group], Counterparty{Name: k.name, Amount: spent[k]})
	}
	for g, cps := range r.TopCounterparties {
		sort.SliceStable(cps, func(i, j int) bool { return cps[i].Amount > cps[j].Amount })
		if len(cps) > cfg.TopCounterparties {
			cps = cps[:cfg.TopCounterparties]
		}
		r.TopCounterparties[g] = cps
	}
	nameCounterparties(r, cfg)
	return r
}

// counterpartyKPIs ties the KPIs whose advice lists payees to their groups.
var counterpartyKPIs = map[string]Group{
	KPICogsRatio:  GroupCogs,
	KPILaborRatio: GroupLabor,
}

// nameCounterparties appends the largest payees to the cogs and labor advice.
func nameCounterparties(r *Report, cfg *Config) {
	for _, k := range cfg.KPIs {
		g, ok := counterpartyKPIs[k.Name]
		if !ok || len(r.TopCounterparties[g]) == 0 {
			continue
		}
		names := make([]string, len(r.TopCounterparties[g]))
		for i, cp := range r.TopCounterparties[g] {
			names[i] = fmt.Sprintf("%s(%.0f万)", cp.Name, float64(cp.Amount)/10000)
		}
		for i := range r.Advice {
			if r.Advice[i].Category == k.Label {
				r.Advice[i].Text += "\n主要: " + strings.Join(names, " / ")
			}
		}
	}
}

func newReport(source, period string, t Totals, cfg *Config) *Report {
	sc := Score(t, cfg)
	return &Report{
		ID:              uuid.NewString(),
		Source:          source,
		Period:          period,
		Revenue:         t.Revenue,
		Cogs:            t.Cogs,
		Labor:           t.Labor,
		Fixed:           t.Fixed,
		Fees:            t.Fees,
		Selling:         t.Selling,
		Other:           t.Other,
		Tax:             t.Tax,
		Financing:       t.Financing,
		GrossProfit:     t.GrossProfit(),
		OperatingProfit: t.OperatingProfit(),
		NetApprox:       t.NetApprox(),
		GrossMargin:     t.GrossMargin(),
		OpMargin:        t.OpMargin(),
		CogsRatio:       t.CogsRatio(),
		LaborRatio:      t.LaborRatio(),
		FixedRatio:      t.FixedRatio(),
		FLRatio:         t.FLRatio(),
		LossMonths:      t.LossMonths,
		KPIs:            sc.KPIs,
		Score:           sc.Score,
		Verdict:         sc.Verdict,
		PrimaryCause:    sc.PrimaryCause,
		Advice:          sc.Advice,
	}
}

func crossCheck(revenue int64, b *ledger.Bucket) *BankCheck {
	in := b.In()
	diff := revenue - in
	if diff < 0 {
		diff = -diff
	}
	match := 1 - float64(diff)/float64(max(revenue, 1))
	return &BankCheck{
		BankIn:     in,
		BankOut:    b.Out(),
		BankNet:    b.Net(),
		EndBalance: b.Closing(),
		DiffFromPL: diff,
		MatchPct:   round1(max(0, match) * 100),
		Count:      len(b.Records),
	}
}

// period labels the months a ledger covers.
func period(l *ledger.Ledger) string {
	switch n := len(l.Buckets); n {
	case 0:
		return ""
	case 1:
		return l.Buckets[0].Label()
	default:
		return l.Buckets[0].Label() + "〜" + l.Buckets[n-1].Label()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
