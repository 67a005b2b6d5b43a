// Package classify assigns accounting subjects to bank statement rows.
//
// Classification is a cascade of stages evaluated in a fixed order:
// direction-independent rules, the outbound rule sets, the outbound
// fallback, and finally the inbound keyword groups. The first stage that
// resolves a subject ends the cascade.
package classify

import (
	"strings"

	"github.com/meisai-dev/meisai/internal/model"
)

// LabelSeparator joins category and sub-subject in display labels.
const LabelSeparator = "  ›  "

// stage resolves a description, or reports false to defer to the next stage.
type stage func(desc string, in, out int64) (Result, bool)

// Classifier is safe for concurrent use; it never mutates its RuleBook.
type Classifier struct {
	book       *RuleBook
	stages     []stage
	categories map[string]string
}

// New creates a Classifier over book.
func New(book *RuleBook) *Classifier {
	categories := make(map[string]string, len(book.Categories))
	for _, m := range book.Categories {
		if _, ok := categories[m.Subject]; !ok {
			categories[m.Subject] = m.Category
		}
	}
	c := &Classifier{book: book, categories: categories}
	c.stages = []stage{
		c.common,
		c.outboundRules,
		c.outboundFallback,
		c.inbound,
	}
	return c
}

// Default returns a Classifier over DefaultRuleBook.
func Default() *Classifier {
	return New(DefaultRuleBook())
}

// RuleBook returns the vocabulary the classifier was built from.
func (c *Classifier) RuleBook() *RuleBook {
	return c.book
}

// Classify returns the classification for a description and its amounts.
// An empty description yields the zero Classification without consulting
// any rule.
func (c *Classifier) Classify(desc string, in, out int64) model.Classification {
	if desc == "" {
		return model.Classification{}
	}
	for _, st := range c.stages {
		res, ok := st(desc, in, out)
		if !ok {
			continue
		}
		return c.finish(res)
	}
	// Neither direction (zero amounts): no subject, default category.
	return c.finish(Result{})
}

// Category returns the display category for subject.
func (c *Classifier) Category(subject string) string {
	if cat, ok := c.categories[subject]; ok && subject != "" {
		return cat
	}
	return c.book.DefaultCategory
}

func (c *Classifier) finish(res Result) model.Classification {
	cls := model.Classification{
		Subject:    res.Subject,
		SubSubject: res.SubSubject,
		Category:   c.Category(res.Subject),
	}
	if res.Subject != "" {
		mid := res.SubSubject
		if mid == "" {
			mid = res.Subject
		}
		cls.Label = cls.Category + LabelSeparator + mid
	}
	return cls
}

func (c *Classifier) common(desc string, _, _ int64) (Result, bool) {
	if r, ok := c.book.Common.Match(desc); ok {
		return Result{Subject: r.Subject, SubSubject: r.SubSubject}, true
	}
	return Result{}, false
}

func (c *Classifier) outboundRules(desc string, _, out int64) (Result, bool) {
	if out <= 0 {
		return Result{}, false
	}
	for _, set := range c.book.Outbound {
		if r, ok := set.Match(desc); ok {
			return Result{Subject: r.Subject, SubSubject: r.SubSubject}, true
		}
	}
	return Result{}, false
}

func (c *Classifier) outboundFallback(desc string, _, out int64) (Result, bool) {
	if out <= 0 {
		return Result{}, false
	}
	fb := c.book.Fallback
	for _, marker := range fb.CorporateMarkers {
		if strings.Contains(desc, marker) {
			return fb.Corporate, true
		}
	}
	return fb.Default, true
}

func (c *Classifier) inbound(desc string, in, _ int64) (Result, bool) {
	if in <= 0 {
		return Result{}, false
	}
	res := Result{Subject: c.book.Inbound.Subject}
	for _, g := range c.book.Inbound.Groups {
		if containsAny(desc, g.Keywords) {
			res.SubSubject = g.SubSubject
			break
		}
	}
	return res, true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
