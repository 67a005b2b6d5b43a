package classify

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ReadRuleBook decodes a YAML rule book and validates it.
func ReadRuleBook(r io.Reader) (*RuleBook, error) {
	var book RuleBook
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&book); err != nil {
		return nil, fmt.Errorf("parsing rule book: %w", err)
	}
	if book.DefaultCategory == "" {
		book.DefaultCategory = CategoryOther
	}
	if err := book.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule book: %w", err)
	}
	return &book, nil
}

// WriteRuleBook encodes a rule book as YAML.
func WriteRuleBook(w io.Writer, book *RuleBook) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(book); err != nil {
		return fmt.Errorf("encoding rule book: %w", err)
	}
	return enc.Close()
}

// LoadRuleBook reads a rule book file. An empty path yields the defaults.
func LoadRuleBook(path string) (*RuleBook, error) {
	if path == "" {
		return DefaultRuleBook(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rule book: %w", err)
	}
	defer f.Close()

	book, err := ReadRuleBook(f)
	if err != nil {
		return nil, fmt.Errorf("reading rule book %s: %w", path, err)
	}
	return book, nil
}

// SaveRuleBook writes a rule book file.
func SaveRuleBook(path string, book *RuleBook) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating rule book file: %w", err)
	}
	defer f.Close()

	if err := WriteRuleBook(f, book); err != nil {
		return fmt.Errorf("writing rule book: %w", err)
	}
	return nil
}
