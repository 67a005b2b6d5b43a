package diagnosis

import (
	"strings"

	"github.com/meisai-dev/meisai/internal/plparse"
)

// Group is a P&L line the diagnosis sums amounts into.
type Group string

const (
	GroupCogs      Group = "cogs"
	GroupLabor     Group = "labor"
	GroupFixed     Group = "fixed"
	GroupFees      Group = "fees"
	GroupSelling   Group = "selling"
	GroupOther     Group = "other"
	GroupTax       Group = "tax"
	GroupFinancing Group = "financing"
)

// Groups lists every group in report order.
var Groups = []Group{GroupCogs, GroupLabor, GroupFixed, GroupFees, GroupSelling, GroupOther, GroupTax, GroupFinancing}

// Valid reports whether g is a known group.
func (g Group) Valid() bool {
	for _, known := range Groups {
		if g == known {
			return true
		}
	}
	return false
}

// DefaultLabelGroups maps P&L line-item labels, Japanese and English, to
// groups. Lookups go through labelKey, so case and character width do not
// matter.
func DefaultLabelGroups() map[string]Group {
	return map[string]Group{
		"仕入":    GroupCogs,
		"仕入高":   GroupCogs,
		"売上原価":  GroupCogs,
		"原価":    GroupCogs,
		"外注費":   GroupLabor,
		"人件費":   GroupLabor,
		"給与":    GroupLabor,
		"給料":    GroupLabor,
		"役員報酬":  GroupLabor,
		"福利厚生":  GroupLabor,
		"福利厚生費": GroupLabor,
		"地代家賃":  GroupFixed,
		"家賃":    GroupFixed,
		"光熱費":   GroupFixed,
		"水道光熱費": GroupFixed,
		"通信費":   GroupFixed,
		"車両費":   GroupFixed,
		"保険料":   GroupFixed,
		"交際費":   GroupSelling,
		"旅費交通費": GroupSelling,
		"広告宣伝費": GroupSelling,
		"消耗品":   GroupOther,
		"消耗品費":  GroupOther,
		"支払手数料": GroupOther,
		"雑費":    GroupOther,
		"租税公課":  GroupTax,
		"事業借入":  GroupFinancing,
		"長期未払金": GroupFinancing,

		"cost of goods":  GroupCogs,
		"cost of sales":  GroupCogs,
		"cogs":           GroupCogs,
		"purchases":      GroupCogs,
		"labor":          GroupLabor,
		"labour":         GroupLabor,
		"salaries":       GroupLabor,
		"wages":          GroupLabor,
		"payroll":        GroupLabor,
		"outsourcing":    GroupLabor,
		"rent":           GroupFixed,
		"utilities":      GroupFixed,
		"communication":  GroupFixed,
		"insurance":      GroupFixed,
		"vehicle":        GroupFixed,
		"entertainment":  GroupSelling,
		"travel":         GroupSelling,
		"advertising":    GroupSelling,
		"supplies":       GroupOther,
		"fees":           GroupOther,
		"misc":           GroupOther,
		"miscellaneous":  GroupOther,
		"taxes":          GroupTax,
		"loan":           GroupFinancing,
		"loan repayment": GroupFinancing,
	}
}

// DefaultSubjectGroups maps ledger subjects to groups. Subjects without an
// entry (transfers, cash withdrawals, revenue) are left out of the totals.
func DefaultSubjectGroups() map[string]Group {
	return map[string]Group{
		"仕入":    GroupCogs,
		"人件費":   GroupLabor,
		"外注費":   GroupLabor,
		"光熱費":   GroupFixed,
		"通信費":   GroupFixed,
		"車両費":   GroupFixed,
		"地代家賃":  GroupFixed,
		"消耗品":   GroupFixed,
		"保険料":   GroupFixed,
		"雑費":    GroupFixed,
		"租税公課":  GroupFixed,
		"福利厚生":  GroupFixed,
		"支払手数料": GroupFees,
		"交際費":   GroupSelling,
		"旅費交通費": GroupSelling,
		"事業借入":  GroupFinancing,
		"長期未払金": GroupFinancing,
	}
}

// labelKey normalises a label for table lookups.
func labelKey(label string) string {
	return strings.ToLower(plparse.NormalizeLabel(label))
}

// labelIndex re-keys a label table through labelKey.
func labelIndex(table map[string]Group) map[string]Group {
	out := make(map[string]Group, len(table))
	for k, g := range table {
		out[labelKey(k)] = g
	}
	return out
}

// Totals are the summed P&L figures the score is computed from.
type Totals struct {
	Revenue   int64
	Cogs      int64
	Labor     int64
	Fixed     int64
	Fees      int64
	Selling   int64
	Other     int64
	Tax       int64
	Financing int64
	// Net decides whether an all-clear earns the affirmative advice.
	Net        int64
	LossMonths int
}

// Add books amount into group g.
func (t *Totals) Add(g Group, amount int64) {
	switch g {
	case GroupCogs:
		t.Cogs += amount
	case GroupLabor:
		t.Labor += amount
	case GroupFixed:
		t.Fixed += amount
	case GroupFees:
		t.Fees += amount
	case GroupSelling:
		t.Selling += amount
	case GroupOther:
		t.Other += amount
	case GroupTax:
		t.Tax += amount
	case GroupFinancing:
		t.Financing += amount
	}
}

// Operating returns every cost except financing.
func (t Totals) Operating() int64 {
	return t.Cogs + t.Labor + t.Fixed + t.Fees + t.Selling + t.Other + t.Tax
}

func (t Totals) GrossProfit() int64     { return t.Revenue - t.Cogs }
func (t Totals) OperatingProfit() int64 { return t.Revenue - t.Operating() }
func (t Totals) NetApprox() int64       { return t.OperatingProfit() - t.Financing }

func (t Totals) ratio(v int64) float64 {
	if t.Revenue <= 0 {
		return 0
	}
	return float64(v) / float64(t.Revenue)
}

func (t Totals) CogsRatio() float64   { return t.ratio(t.Cogs) }
func (t Totals) LaborRatio() float64  { return t.ratio(t.Labor) }
func (t Totals) FixedRatio() float64  { return t.ratio(t.Fixed) }
func (t Totals) FeesRatio() float64   { return t.ratio(t.Fees) }
func (t Totals) GrossMargin() float64 { return t.ratio(t.GrossProfit()) }
func (t Totals) OpMargin() float64    { return t.ratio(t.OperatingProfit()) }

// FLRatio is the combined cost-of-goods and labor burden.
func (t Totals) FLRatio() float64 { return t.CogsRatio() + t.LaborRatio() }

// Value returns the named KPI's value.
func (t Totals) Value(name string) (float64, bool) {
	switch name {
	case KPICogsRatio:
		return t.CogsRatio(), true
	case KPILaborRatio:
		return t.LaborRatio(), true
	case KPIFixedRatio:
		return t.FixedRatio(), true
	case KPIFeesRatio:
		return t.FeesRatio(), true
	case KPIOpMargin:
		return t.OpMargin(), true
	case KPIGrossMargin:
		return t.GrossMargin(), true
	case KPIFLRatio:
		return t.FLRatio(), true
	default:
		return 0, false
	}
}
