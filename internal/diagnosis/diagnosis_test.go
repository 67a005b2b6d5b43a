package diagnosis

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meisai-dev/meisai/internal/importer"
	"github.com/meisai-dev/meisai/internal/ledger"
	"github.com/meisai-dev/meisai/internal/logger"
	"github.com/meisai-dev/meisai/internal/plparse"
)

func fixtureLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	data, err := os.ReadFile("../../testdata/bank_sjis.csv")
	require.NoError(t, err)
	recs, _, err := importer.NewBankParser(nil, logger.Discard()).ParseBytes(data)
	require.NoError(t, err)
	return ledger.New(recs)
}

func kpi(t *testing.T, name string) KPI {
	t.Helper()
	for _, k := range DefaultKPIs() {
		if k.Name == name {
			return k
		}
	}
	t.Fatalf("no KPI %s", name)
	return KPI{}
}

func TestRankOf(t *testing.T) {
	cogs := kpi(t, KPICogsRatio)
	op := kpi(t, KPIOpMargin)
	tests := []struct {
		name  string
		value float64
		k     KPI
		want  Rank
	}{
		{"lower top", 0.10, cogs, RankTop},
		{"lower q1 boundary", 0.22, cogs, RankTop},
		{"lower above median", 0.25, cogs, RankAboveMedian},
		{"lower median boundary", 0.27, cogs, RankAboveMedian},
		{"lower below median", 0.30, cogs, RankBelowMedian},
		{"lower q3 boundary", 0.33, cogs, RankBelowMedian},
		{"lower bottom", 0.40, cogs, RankBottom},
		{"higher top", 0.25, op, RankTop},
		{"higher q3 boundary", 0.20, op, RankTop},
		{"higher above median", 0.15, op, RankAboveMedian},
		{"higher below median", 0.05, op, RankBelowMedian},
		{"higher bottom", 0.01, op, RankBottom},
		{"higher negative", -0.5, op, RankBottom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RankOf(tt.value, tt.k))
		})
	}
}

func TestDeviation(t *testing.T) {
	assert.InDelta(t, 48.148, Deviation(0.40, 0.27), 0.001)
	assert.InDelta(t, -50, Deviation(0.06, 0.12), 1e-9)
	assert.Zero(t, Deviation(0.5, 0))
	assert.Equal(t, 48.1, round1(Deviation(0.40, 0.27)))
}

func TestKPI_WarnAndExcess(t *testing.T) {
	cogs := kpi(t, KPICogsRatio)
	assert.Equal(t, 0.33, cogs.Warn())
	assert.InDelta(t, 0.07, cogs.Excess(0.40), 1e-9)
	assert.Zero(t, cogs.Excess(0.30))

	op := kpi(t, KPIOpMargin)
	assert.Equal(t, 0.05, op.Warn())
	assert.InDelta(t, 0.04, op.Excess(0.01), 1e-9)
	assert.Zero(t, op.Excess(0.10))
}

func TestScore_CostOfGoodsScenario(t *testing.T) {
	ext := plparse.Extract("Revenue 10,000,000\nCost of goods 4,000,000")
	r, err := Evaluate(ext, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(10000000), r.Revenue)
	assert.Equal(t, int64(4000000), r.Cogs)
	assert.InDelta(t, 0.40, r.CogsRatio, 1e-9)
	assert.Equal(t, 80, r.Score)
	assert.Equal(t, "good", r.Verdict.Severity)
	assert.Equal(t, KPICogsRatio, r.PrimaryCause)

	require.NotEmpty(t, r.KPIs)
	assert.Equal(t, KPICogsRatio, r.KPIs[0].Name)
	assert.Equal(t, RankBottom, r.KPIs[0].Rank)
	assert.Equal(t, 0.33, r.KPIs[0].Q3)
	assert.Equal(t, 48.1, r.KPIs[0].DeviationPct)
	assert.Equal(t, StatusCritical, r.KPIs[0].Status)

	require.Len(t, r.Advice, 1)
	assert.Equal(t, Advice{
		Severity: SeverityHigh,
		Category: "仕入率",
		Text:     "仕入率が危険水準です（40.0% / 目安33.0%）。仕入・原価管理を最優先で改善してください。",
	}, r.Advice[0])
	assert.Empty(t, r.Unmapped)
	assert.Nil(t, r.Bank)
}

func TestScore_Penalties(t *testing.T) {
	tests := []struct {
		name     string
		totals   Totals
		score    int
		severity []string
		texts    []string
		cause    string
	}{
		{
			name:     "lower-is-better over",
			totals:   Totals{Revenue: 1000000, Labor: 420000, Net: 1},
			score:    92,
			severity: []string{SeverityMedium},
			texts:    []string{"人件費率がやや高め（42.0% / 中央値34.0%）。人件費・生産性の見直しを検討してください。"},
			cause:    KPILaborRatio,
		},
		{
			name:     "higher-is-better over",
			totals:   Totals{Revenue: 1000000, Cogs: 300000, Labor: 380000, Fixed: 260000, Other: 20000, Net: 1},
			score:    92,
			severity: []string{SeverityMedium},
			texts:    []string{"営業利益率がやや低め（4.0% / 中央値12.0%）。収益改善の見直しを検討してください。"},
			cause:    KPIOpMargin,
		},
		{
			name:     "two loss months",
			totals:   Totals{Revenue: 1000000, LossMonths: 2},
			score:    90,
			severity: []string{SeverityMedium},
			texts:    []string{"赤字月が2ヶ月あります。月次収支管理の強化と、赤字月の支出パターンを確認してください。"},
			cause:    PrimaryCauseNone,
		},
		{
			name:     "loss months capped",
			totals:   Totals{Revenue: 1000000, LossMonths: 5},
			score:    85,
			severity: []string{SeverityHigh},
			texts:    []string{"赤字月が5ヶ月あります。月次収支管理の強化と、赤字月の支出パターンを確認してください。"},
			cause:    PrimaryCauseNone,
		},
		{
			name:     "fl ratio",
			totals:   Totals{Revenue: 1000000, Cogs: 320000, Labor: 390000, Net: 1},
			score:    90,
			severity: []string{SeverityHigh},
			texts:    []string{"FL比率71.0%が70%超。人件費の削減を先行させてください。"},
			cause:    PrimaryCauseNone,
		},
		{
			name:     "all clear",
			totals:   Totals{Revenue: 1000000, Cogs: 200000, Labor: 250000, Fixed: 100000, Net: 450000},
			score:    100,
			severity: []string{SeverityInfo},
			texts:    []string{"全KPIが適正範囲内です。現在の経営スタイルと価格設定を維持してください。利益を設備・人材育成へ再投資する段階です。"},
			cause:    PrimaryCauseNone,
		},
		{
			name:   "all clear without profit",
			totals: Totals{Revenue: 1000000},
			score:  100,
			cause:  PrimaryCauseNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := Score(tt.totals, nil)
			assert.Equal(t, tt.score, sc.Score)
			assert.Equal(t, tt.cause, sc.PrimaryCause)
			require.Len(t, sc.Advice, len(tt.texts))
			for i := range tt.texts {
				assert.Equal(t, tt.severity[i], sc.Advice[i].Severity)
				assert.Equal(t, tt.texts[i], sc.Advice[i].Text)
			}
		})
	}
}

func TestScore_ClampsAtZero(t *testing.T) {
	sc := Score(Totals{Revenue: 1000000, Cogs: 500000, Labor: 600000, Fixed: 400000, LossMonths: 3}, nil)
	assert.Equal(t, 0, sc.Score)
	assert.Equal(t, "bad", sc.Verdict.Severity)
	// Operating margin at -50% is 0.55 past its warn threshold.
	assert.Equal(t, KPIOpMargin, sc.PrimaryCause)
	// Four criticals, loss months, FL.
	assert.Len(t, sc.Advice, 6)
	assert.Equal(t, "FL比率110.0%が70%超。人件費の削減を先行させてください。", sc.Advice[5].Text)
}

func TestScore_NoRevenue(t *testing.T) {
	sc := Score(Totals{LossMonths: 1}, nil)
	assert.Empty(t, sc.KPIs)
	assert.Equal(t, 95, sc.Score)
	assert.Equal(t, PrimaryCauseNone, sc.PrimaryCause)
}

func TestScore_UntrackedKPIIsReportedOnly(t *testing.T) {
	// Gross margin 0.30 is bottom-quartile but carries no penalty.
	sc := Score(Totals{Revenue: 1000000, Cogs: 700000, Net: 1}, nil)
	var gross KPIResult
	for _, k := range sc.KPIs {
		if k.Name == KPIGrossMargin {
			gross = k
		}
	}
	assert.Equal(t, RankBottom, gross.Rank)
	assert.Equal(t, StatusOK, gross.Status)
	// Cost of goods is critical; FL at exactly 0.70 is not over the line.
	assert.Equal(t, 80, sc.Score)
}

func TestScore_CustomPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.CriticalPenalty = 50
	cfg.Policy.Start = 90
	sc := Score(Totals{Revenue: 1000000, Cogs: 400000, Net: 1}, cfg)
	assert.Equal(t, 40, sc.Score)
	assert.Equal(t, "ok", VerdictFor(50, cfg.Bands).Severity)
}

func TestVerdictFor(t *testing.T) {
	bands := DefaultBands()
	tests := []struct {
		score int
		want  string
	}{
		{100, "excellent"},
		{90, "excellent"},
		{89, "good"},
		{70, "good"},
		{69, "ok"},
		{50, "ok"},
		{49, "warn"},
		{30, "warn"},
		{29, "bad"},
		{0, "bad"},
		{-5, "bad"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerdictFor(tt.score, bands).Severity, "score %d", tt.score)
	}
	assert.Equal(t, Verdict{Label: "✅ 良好", Severity: "good", Color: "#1b5e20"}, VerdictFor(75, bands))
	assert.Equal(t, Verdict{}, VerdictFor(50, nil))
}

func TestEvaluate_RequiresRevenue(t *testing.T) {
	_, err := Evaluate(plparse.Extract("人件費 100000"), nil, nil)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "revenue", verr.Field)
	assert.Contains(t, err.Error(), "Revenue 1,000,000")
}

func TestEvaluate_Groups(t *testing.T) {
	text := `2026年1月
売上 1,000,000
仕入 200,000
ＣＯＧＳ 50,000
給与 300,000
地代家賃 80,000
交際費 10,000
租税公課 5,000
事業借入 100,000
謎の費用 7,000
`
	r, err := Evaluate(plparse.Extract(text), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "2026年1月", r.Period)
	assert.Equal(t, SourcePL, r.Source)
	assert.Equal(t, int64(250000), r.Cogs)
	assert.Equal(t, int64(300000), r.Labor)
	assert.Equal(t, int64(80000), r.Fixed)
	assert.Equal(t, int64(10000), r.Selling)
	assert.Equal(t, int64(5000), r.Tax)
	assert.Equal(t, int64(100000), r.Financing)
	assert.Equal(t, int64(750000), r.GrossProfit)
	assert.Equal(t, int64(355000), r.OperatingProfit)
	assert.Equal(t, int64(255000), r.NetApprox)
	assert.InDelta(t, 0.55, r.FLRatio, 1e-9)
	assert.Equal(t, []string{"謎の費用"}, r.Unmapped)
	assert.Len(t, r.Items, 8)
	assert.Zero(t, r.LossMonths)
}

func TestEvaluate_NegativeNetCountsAsLossMonth(t *testing.T) {
	r, err := Evaluate(plparse.Extract("売上 100\n事業借入 500"), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(-400), r.NetApprox)
	assert.Equal(t, 1, r.LossMonths)
}

func TestEvaluate_CustomLabelGroupsAreFolded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LabelGroups["ﾃｽﾄ費"] = GroupOther
	r, err := Evaluate(plparse.Extract("売上 1000\nテスト費 10"), nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(10), r.Other)
	assert.Empty(t, r.Unmapped)
}

func TestEvaluate_BankCrossCheck(t *testing.T) {
	bank := fixtureLedger(t)

	r, err := Evaluate(plparse.Extract("2026年1月\n売上 250,000"), bank, nil)
	require.NoError(t, err)
	require.NotNil(t, r.Bank)
	assert.Equal(t, BankCheck{
		BankIn:     200000,
		BankOut:    348000,
		BankNet:    -148000,
		EndBalance: 652000,
		DiffFromPL: 50000,
		MatchPct:   80,
		Count:      4,
	}, *r.Bank)

	// No period, or a month the ledger does not cover: no cross-check.
	r, err = Evaluate(plparse.Extract("売上 250,000"), bank, nil)
	require.NoError(t, err)
	assert.Nil(t, r.Bank)
	r, err = Evaluate(plparse.Extract("2025年1月\n売上 250,000"), bank, nil)
	require.NoError(t, err)
	assert.Nil(t, r.Bank)
}

func TestEvaluate_MatchPctFloorsAtZero(t *testing.T) {
	bank := fixtureLedger(t)
	r, err := Evaluate(plparse.Extract("2026年1月\n売上 50,000"), bank, nil)
	require.NoError(t, err)
	require.NotNil(t, r.Bank)
	assert.Equal(t, int64(150000), r.Bank.DiffFromPL)
	assert.Zero(t, r.Bank.MatchPct)
}

func TestDiagnose_Ledger(t *testing.T) {
	r := Diagnose(fixtureLedger(t), nil)

	assert.Equal(t, SourceLedger, r.Source)
	assert.Equal(t, "2026年1月〜2026年2月", r.Period)
	assert.Equal(t, int64(200003), r.Revenue)
	assert.Equal(t, int64(50000), r.Cogs)
	assert.Equal(t, int64(338000), r.Labor)
	assert.Equal(t, int64(100000), r.Financing)
	assert.Zero(t, r.Fixed)
	assert.Equal(t, 2, r.LossMonths)

	// Labor critical, operating margin critical, two loss months, FL.
	assert.Equal(t, 40, r.Score)
	assert.Equal(t, "warn", r.Verdict.Severity)
	assert.Equal(t, KPILaborRatio, r.PrimaryCause)
	require.Len(t, r.Advice, 4)
	assert.Equal(t, "人件費率", r.Advice[0].Category)
	assert.True(t, strings.HasSuffix(r.Advice[0].Text, "\n主要: サカモト　ミカ(25万) / カ）キタマ(9万)"), r.Advice[0].Text)
	assert.NotContains(t, r.Advice[1].Text, "主要")
	assert.Equal(t, "FL比率194.0%が70%超。人件費の削減を先行させてください。", r.Advice[3].Text)

	assert.Equal(t, []Counterparty{
		{Name: "サカモト　ミカ", Amount: 250000},
		{Name: "カ）キタマ", Amount: 88000},
	}, r.TopCounterparties[GroupLabor])
	assert.Equal(t, []Counterparty{{Name: "シグニ（カ", Amount: 50000}}, r.TopCounterparties[GroupCogs])
	_, err := uuid.Parse(r.ID)
	assert.NoError(t, err)
}

func TestDiagnose_Empty(t *testing.T) {
	r := Diagnose(ledger.New(nil), nil)
	assert.Empty(t, r.Period)
	assert.Equal(t, 100, r.Score)
	assert.Empty(t, r.Advice)
	assert.Nil(t, r.TopCounterparties)
}

func TestDiagnose_TopCounterpartiesLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TopCounterparties = 1
	r := Diagnose(fixtureLedger(t), cfg)
	assert.Len(t, r.TopCounterparties[GroupLabor], 1)
	assert.Equal(t, "サカモト　ミカ", r.TopCounterparties[GroupLabor][0].Name)
}

func TestReport_JSON(t *testing.T) {
	r, err := Evaluate(plparse.Extract("Revenue 10,000,000\nCost of goods 4,000,000"), nil, nil)
	require.NoError(t, err)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	for _, key := range []string{"id", "period", "revenue", "gross_profit", "net_approx", "op_margin", "fl_ratio", "kpis", "score", "verdict", "primary_cause", "advice"} {
		assert.Contains(t, m, key)
	}
	assert.NotContains(t, m, "bank")
	assert.Equal(t, "cogs_ratio", m["primary_cause"])

	kpis := m["kpis"].([]any)
	first := kpis[0].(map[string]any)
	assert.Equal(t, "bottom", first["rank"])
	assert.Equal(t, true, first["lower_is_better"])
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.KPIs = append(cfg.KPIs, KPI{Name: "bogus"}, KPI{Name: KPICogsRatio, Q1: 0.5, Median: 0.4, Q3: 0.3})
	cfg.Bands = []Band{{MinScore: 10}, {MinScore: 50}}
	cfg.Policy.Max = cfg.Policy.Min
	cfg.LabelGroups["x"] = Group("nope")
	cfg.TopCounterparties = -1

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`unknown KPI "bogus"`,
		`duplicate KPI "cogs_ratio"`,
		"quartiles must ascend",
		"min_score 50 must be below 10",
		"policy: min 0 must be below max 0",
		`unknown group "nope"`,
		"top_counterparties",
	} {
		assert.Contains(t, err.Error(), want)
	}
}
