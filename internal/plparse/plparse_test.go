package plparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_English(t *testing.T) {
	ext := Extract("Revenue 10,000,000\nCost of goods 4,000,000")

	assert.Equal(t, int64(10000000), ext.Revenue)
	assert.Equal(t, []Item{{Label: "Cost of goods", Amount: 4000000}}, ext.Items)
	assert.False(t, ext.HasPeriod())
	assert.Empty(t, ext.Period)
}

func TestExtract_Japanese(t *testing.T) {
	text := `2026年2月 月次報告
売上：１，２００，０００円
出費配分内訳
仕入　３００,０００
人件費 ¥400,000
地代家賃 ￥80,000
合計 780000
`
	ext := Extract(text)

	assert.Equal(t, "2026年2月", ext.Period)
	assert.Equal(t, 2026, ext.Year)
	assert.Equal(t, 2, ext.Month)
	assert.Equal(t, int64(1200000), ext.Revenue)
	assert.Equal(t, []Item{
		{Label: "仕入", Amount: 300000},
		{Label: "人件費", Amount: 400000},
		{Label: "地代家賃", Amount: 80000},
	}, ext.Items)
}

func TestExtract_Period(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		period string
		year   int
		month  int
	}{
		{"kanji", "2025年12月の収支", "2025年12月", 2025, 12},
		{"slash", "period 2026/3", "2026年3月", 2026, 3},
		{"dash", "2026-04 report", "2026年4月", 2026, 4},
		{"full width digits", "２０２６年５月", "2026年5月", 2026, 5},
		{"invalid month skipped", "2026/13 then 2026/07", "2026年7月", 2026, 7},
		{"none", "no period here", "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := Extract(tt.text)
			assert.Equal(t, tt.period, ext.Period)
			assert.Equal(t, tt.year, ext.Year)
			assert.Equal(t, tt.month, ext.Month)
		})
	}
}

func TestExtract_RevenueKeywordOrder(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int64
	}{
		{"売上 beats 入金", "入金 500\n売上 900", 900},
		{"売上高", "売上高: 1,500", 1500},
		{"収入", "収入 300", 300},
		{"Sales", "Sales: $2,000", 2000},
		{"no digits after keyword", "売上 unknown", 0},
		{"none", "人件費 100", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text).Revenue)
		})
	}
}

func TestExtract_FirstOccurrenceWins(t *testing.T) {
	ext := Extract("人件費 100\n通信費 20\n人件費 999")
	assert.Equal(t, []Item{
		{Label: "人件費", Amount: 100},
		{Label: "通信費", Amount: 20},
	}, ext.Items)
}

func TestExtract_SkipsNonItems(t *testing.T) {
	text := `Total 100
Subtotal 50
Income 70
X 5
a label that is far too long 10
ratio: 30
人件費 12a
`
	ext := Extract(text)
	assert.Empty(t, ext.Items)
}

func TestExtract_Overflow(t *testing.T) {
	ext := Extract("Revenue 99999999999999999999\n人件費 99999999999999999999")
	assert.Zero(t, ext.Revenue)
	assert.Empty(t, ext.Items)
}

func TestExtract_Empty(t *testing.T) {
	ext := Extract("")
	assert.Equal(t, Extraction{Items: []Item{}}, ext)
}

func TestExtract_Deterministic(t *testing.T) {
	text := "2026年1月\n売上 1000\n仕入費 300\n人件費 200\n"
	first := Extract(text)
	for range 5 {
		require.Equal(t, first, Extract(text))
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "売上: 1200000", Normalize("売上：　１，２００，０００円"))
	assert.Equal(t, "Cost 5", Normalize("Cost $5"))
	assert.Equal(t, "カ)キタマ", NormalizeLabel(" ｶ)ｷﾀﾏ "))
}
