package importer

import (
	"fmt"
	"strings"
)

// EncodingError reports that no candidate encoding could decode the input.
type EncodingError struct {
	Tried []string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("could not determine CSV encoding (tried %s)", strings.Join(e.Tried, ", "))
}

// SchemaError reports that a required column is missing from the header.
type SchemaError struct {
	Column string
	Header []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column %q not found in header [%s]", e.Column, strings.Join(e.Header, ", "))
}
