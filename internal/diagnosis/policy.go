package diagnosis

import (
	"errors"
	"fmt"
)

// Policy holds the scoring constants. The defaults are hand-tuned and meant
// to be recalibrated through configuration.
type Policy struct {
	Start                int     `yaml:"start"`
	Min                  int     `yaml:"min"`
	Max                  int     `yaml:"max"`
	CriticalPenalty      int     `yaml:"critical_penalty"`
	OverPenalty          int     `yaml:"over_penalty"`
	CriticalLowerFactor  float64 `yaml:"critical_lower_factor"`
	CriticalHigherFactor float64 `yaml:"critical_higher_factor"`
	LossMonthPenalty     int     `yaml:"loss_month_penalty"`
	LossMonthCap         int     `yaml:"loss_month_cap"`
	// More loss months than this raise the advice to high severity.
	LossMonthHighAfter int     `yaml:"loss_month_high_after"`
	FLThreshold        float64 `yaml:"fl_threshold"`
	FLPenalty          int     `yaml:"fl_penalty"`
}

// DefaultPolicy returns the stock scoring constants.
func DefaultPolicy() Policy {
	return Policy{
		Start:                100,
		Min:                  0,
		Max:                  100,
		CriticalPenalty:      20,
		OverPenalty:          8,
		CriticalLowerFactor:  1.2,
		CriticalHigherFactor: 0.5,
		LossMonthPenalty:     5,
		LossMonthCap:         15,
		LossMonthHighAfter:   2,
		FLThreshold:          0.70,
		FLPenalty:            10,
	}
}

// Band is one step of the verdict table.
type Band struct {
	MinScore int    `yaml:"min_score"`
	Label    string `yaml:"label"`
	Severity string `yaml:"severity"`
	Color    string `yaml:"color"`
}

// DefaultBands returns the five-tier verdict table, highest first.
func DefaultBands() []Band {
	return []Band{
		{MinScore: 90, Label: "🏆 非常に優秀", Severity: "excellent", Color: "#155724"},
		{MinScore: 70, Label: "✅ 良好", Severity: "good", Color: "#1b5e20"},
		{MinScore: 50, Label: "⚠️ 普通", Severity: "ok", Color: "#7F6000"},
		{MinScore: 30, Label: "🔶 要改善", Severity: "warn", Color: "#E65100"},
		{MinScore: 0, Label: "🚨 要対策", Severity: "bad", Color: "#B71C1C"},
	}
}

// Verdict is the banded reading of a score.
type Verdict struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Color    string `json:"color"`
}

// VerdictFor returns the first band whose MinScore the score reaches.
// Scores below every band get the last one.
func VerdictFor(score int, bands []Band) Verdict {
	if len(bands) == 0 {
		return Verdict{}
	}
	b := bands[len(bands)-1]
	for _, cand := range bands {
		if score >= cand.MinScore {
			b = cand
			break
		}
	}
	return Verdict{Label: b.Label, Severity: b.Severity, Color: b.Color}
}

// Config is everything the engine reads. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	KPIs          []KPI            `yaml:"kpis"`
	Policy        Policy           `yaml:"policy"`
	Bands         []Band           `yaml:"bands"`
	LabelGroups   map[string]Group `yaml:"label_groups,omitempty"`
	SubjectGroups map[string]Group `yaml:"subject_groups,omitempty"`
	// TopCounterparties is how many counterparties Diagnose lists per group.
	TopCounterparties int `yaml:"top_counterparties"`
}

// DefaultConfig returns the stock benchmarks, policy and tables.
func DefaultConfig() *Config {
	return &Config{
		KPIs:              DefaultKPIs(),
		Policy:            DefaultPolicy(),
		Bands:             DefaultBands(),
		LabelGroups:       DefaultLabelGroups(),
		SubjectGroups:     DefaultSubjectGroups(),
		TopCounterparties: 3,
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if len(c.KPIs) == 0 {
		errs = append(errs, errors.New("no KPIs configured"))
	}
	seen := make(map[string]bool)
	for i, k := range c.KPIs {
		if _, ok := (Totals{}).Value(k.Name); !ok {
			errs = append(errs, fmt.Errorf("kpis[%d]: unknown KPI %q", i, k.Name))
		}
		if seen[k.Name] {
			errs = append(errs, fmt.Errorf("kpis[%d]: duplicate KPI %q", i, k.Name))
		}
		seen[k.Name] = true
		if !(k.Q1 <= k.Median && k.Median <= k.Q3) {
			errs = append(errs, fmt.Errorf("kpis[%d] %s: quartiles must ascend (q1 %v, median %v, q3 %v)", i, k.Name, k.Q1, k.Median, k.Q3))
		}
	}

	p := c.Policy
	if p.Min >= p.Max {
		errs = append(errs, fmt.Errorf("policy: min %d must be below max %d", p.Min, p.Max))
	}
	if p.CriticalPenalty < 0 || p.OverPenalty < 0 || p.LossMonthPenalty < 0 || p.FLPenalty < 0 {
		errs = append(errs, errors.New("policy: penalties must not be negative"))
	}

	if len(c.Bands) == 0 {
		errs = append(errs, errors.New("no verdict bands configured"))
	}
	for i := 1; i < len(c.Bands); i++ {
		if c.Bands[i].MinScore >= c.Bands[i-1].MinScore {
			errs = append(errs, fmt.Errorf("bands[%d]: min_score %d must be below %d", i, c.Bands[i].MinScore, c.Bands[i-1].MinScore))
		}
	}

	for label, g := range c.LabelGroups {
		if !g.Valid() {
			errs = append(errs, fmt.Errorf("label_groups[%s]: unknown group %q", label, g))
		}
	}
	for subject, g := range c.SubjectGroups {
		if !g.Valid() {
			errs = append(errs, fmt.Errorf("subject_groups[%s]: unknown group %q", subject, g))
		}
	}
	if c.TopCounterparties < 0 {
		errs = append(errs, fmt.Errorf("top_counterparties must not be negative, got %d", c.TopCounterparties))
	}
	return errors.Join(errs...)
}
