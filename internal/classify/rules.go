package classify

import (
	"errors"
	"fmt"
	"strings"
)

// Rule maps a description substring to a subject.
type Rule struct {
	Pattern    string `yaml:"pattern"`
	Subject    string `yaml:"subject"`
	SubSubject string `yaml:"sub_subject,omitempty"`
}

// RuleSet is a named, ordered list of rules. The first matching rule wins.
type RuleSet struct {
	Name  string `yaml:"name"`
	Rules []Rule `yaml:"rules"`
}

// Match returns the first rule whose pattern occurs in desc.
func (s RuleSet) Match(desc string) (Rule, bool) {
	for _, r := range s.Rules {
		if strings.Contains(desc, r.Pattern) {
			return r, true
		}
	}
	return Rule{}, false
}

// Result is a (subject, sub-subject) pair.
type Result struct {
	Subject    string `yaml:"subject"`
	SubSubject string `yaml:"sub_subject,omitempty"`
}

// Fallback resolves outbound transactions no rule set matched.
// Descriptions carrying a corporate marker are treated as outsourcing to a
// company; everything else is booked as staff cost. This is a heuristic and
// has never been checked against labelled data.
type Fallback struct {
	CorporateMarkers []string `yaml:"corporate_markers"`
	Corporate        Result   `yaml:"corporate"`
	Default          Result   `yaml:"default"`
}

// KeywordGroup assigns SubSubject when any keyword occurs in the description.
type KeywordGroup struct {
	SubSubject string   `yaml:"sub_subject"`
	Keywords   []string `yaml:"keywords"`
}

// Inbound resolves deposits.
type Inbound struct {
	Subject string         `yaml:"subject"`
	Groups  []KeywordGroup `yaml:"groups"`
}

// CategoryMapping maps a subject to its display category.
type CategoryMapping struct {
	Subject  string `yaml:"subject"`
	Category string `yaml:"category"`
}

// RuleBook is the full classification vocabulary. A RuleBook is treated as
// read-only once handed to a Classifier.
type RuleBook struct {
	Common          RuleSet           `yaml:"common"`
	Outbound        []RuleSet         `yaml:"outbound"`
	Fallback        Fallback          `yaml:"fallback"`
	Inbound         Inbound           `yaml:"inbound"`
	Categories      []CategoryMapping `yaml:"categories"`
	DefaultCategory string            `yaml:"default_category"`
}

// Validate checks that every rule has a pattern and a subject.
func (b *RuleBook) Validate() error {
	var errs []error
	check := func(set RuleSet) {
		for i, r := range set.Rules {
			if r.Pattern == "" {
				errs = append(errs, fmt.Errorf("rule set %q rule %d: empty pattern", set.Name, i+1))
			}
			if r.Subject == "" {
				errs = append(errs, fmt.Errorf("rule set %q rule %d: empty subject", set.Name, i+1))
			}
		}
	}
	check(b.Common)
	for _, set := range b.Outbound {
		check(set)
	}
	if b.Fallback.Corporate.Subject == "" || b.Fallback.Default.Subject == "" {
		errs = append(errs, errors.New("fallback: corporate and default subjects are required"))
	}
	if b.Inbound.Subject == "" {
		errs = append(errs, errors.New("inbound: subject is required"))
	}
	for i, g := range b.Inbound.Groups {
		if len(g.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("inbound group %d: no keywords", i+1))
		}
		for _, kw := range g.Keywords {
			if kw == "" {
				errs = append(errs, fmt.Errorf("inbound group %d: empty keyword", i+1))
			}
		}
	}
	for _, m := range b.Fallback.CorporateMarkers {
		if m == "" {
			errs = append(errs, errors.New("fallback: empty corporate marker"))
		}
	}
	return errors.Join(errs...)
}

// RuleCount returns the number of substring rules across all sets.
func (b *RuleBook) RuleCount() int {
	n := len(b.Common.Rules)
	for _, set := range b.Outbound {
		n += len(set.Rules)
	}
	return n
}
