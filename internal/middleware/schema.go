package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// Schema is a compiled JSON schema for one request body.
type Schema struct {
	schema *gojsonschema.Schema
}

// MustSchema compiles src and panics on an invalid schema.
func MustSchema(src string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %v", err))
	}
	return &Schema{schema: s}
}

// Validate checks body against the schema and joins every violation into one error.
func (s *Schema) Validate(body []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for i, e := range result.Errors() {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(e.String())
		}
		return fmt.Errorf("request does not conform to schema: %s", sb.String())
	}
	return nil
}

// ParseValidatedJSON reads the body, validates it against schema and decodes it into v.
func ParseValidatedJSON(r *http.Request, schema *Schema, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("cannot read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("request body too large")
	}
	if err := schema.Validate(body); err != nil {
		return err
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	return ParseJSONRequest(r, v)
}
