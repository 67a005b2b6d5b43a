package classify

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleBookRoundTrip(t *testing.T) {
	book := DefaultRuleBook()

	var buf bytes.Buffer
	require.NoError(t, WriteRuleBook(&buf, book))

	got, err := ReadRuleBook(&buf)
	require.NoError(t, err)
	assert.Equal(t, book, got)
}

func TestDefaultRuleBook_Valid(t *testing.T) {
	book := DefaultRuleBook()
	require.NoError(t, book.Validate())
	assert.Greater(t, book.RuleCount(), 50)
	assert.Len(t, book.Inbound.Groups, 6)

	names := make([]string, len(book.Outbound))
	for i, set := range book.Outbound {
		names[i] = set.Name
	}
	assert.Equal(t, []string{"outsourcing", "purchases", "financing", "fees", "fixed", "misc", "staff"}, names)
}

func TestReadRuleBook_DefaultCategory(t *testing.T) {
	src := `
common:
  name: common
  rules:
    - pattern: FEE
      subject: Fees
fallback:
  corporate: {subject: Contractors}
  default: {subject: Payroll}
inbound:
  subject: Sales
`
	book, err := ReadRuleBook(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, CategoryOther, book.DefaultCategory)
	assert.Equal(t, 1, book.RuleCount())
}

func TestReadRuleBook_UnknownField(t *testing.T) {
	_, err := ReadRuleBook(strings.NewReader("colour: blue\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing rule book")
}

func TestReadRuleBook_Invalid(t *testing.T) {
	src := `
common:
  name: common
  rules:
    - pattern: ""
      subject: ""
outbound:
  - name: broken
    rules:
      - pattern: X
fallback:
  corporate_markers: [""]
inbound:
  groups:
    - sub_subject: empty
`
	_, err := ReadRuleBook(strings.NewReader(src))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, `rule set "common" rule 1: empty pattern`)
	assert.Contains(t, msg, `rule set "common" rule 1: empty subject`)
	assert.Contains(t, msg, `rule set "broken" rule 1: empty subject`)
	assert.Contains(t, msg, "fallback: corporate and default subjects are required")
	assert.Contains(t, msg, "fallback: empty corporate marker")
	assert.Contains(t, msg, "inbound: subject is required")
	assert.Contains(t, msg, "inbound group 1: no keywords")
}

func TestLoadRuleBook_EmptyPath(t *testing.T) {
	book, err := LoadRuleBook("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRuleBook(), book)
}

func TestSaveAndLoadRuleBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")

	book := DefaultRuleBook()
	book.Common.Rules = append(book.Common.Rules, Rule{Pattern: "テスト", Subject: SubjectMisc})
	require.NoError(t, SaveRuleBook(path, book))

	got, err := LoadRuleBook(path)
	require.NoError(t, err)
	assert.Equal(t, book.RuleCount(), got.RuleCount())

	c := New(got)
	assert.Equal(t, SubjectMisc, c.Classify("テスト", 0, 100).Subject)
}

func TestLoadRuleBook_Missing(t *testing.T) {
	_, err := LoadRuleBook(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening rule book")
}
