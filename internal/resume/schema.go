package resume

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"portfolio-backend/internal/shared/apperr"
)

// contentSchema only constrains types and sizes. Sections may be absent.
const contentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "name":     {"type": "string", "maxLength": 200},
    "title":    {"type": "string", "maxLength": 200},
    "summary":  {"type": "string", "maxLength": 5000},
    "email":    {"type": "string", "maxLength": 320},
    "phone":    {"type": "string", "maxLength": 64},
    "location": {"type": "string", "maxLength": 200},
    "links":    {"type": ["array", "null"], "maxItems": 20, "items": {"type": "string", "maxLength": 500}},
    "skills":   {"type": ["array", "null"], "maxItems": 200, "items": {"type": "string", "maxLength": 100}},
    "experience": {
      "type": ["array", "null"], "maxItems": 50,
      "items": {
        "type": "object",
        "properties": {
          "company":    {"type": "string"},
          "role":       {"type": "string"},
          "location":   {"type": "string"},
          "start":      {"type": "string"},
          "end":        {"type": "string"},
          "highlights": {"type": ["array", "null"], "items": {"type": "string"}}
        }
      }
    },
    "projects": {
      "type": ["array", "null"], "maxItems": 50,
      "items": {
        "type": "object",
        "properties": {
          "name":        {"type": "string"},
          "description": {"type": "string"},
          "url":         {"type": "string"},
          "stack":       {"type": ["array", "null"], "items": {"type": "string"}},
          "highlights":  {"type": ["array", "null"], "items": {"type": "string"}}
        }
      }
    },
    "education": {
      "type": ["array", "null"], "maxItems": 20,
      "items": {"type": "object"}
    },
    "certifications": {
      "type": ["array", "null"], "maxItems": 50,
      "items": {"type": "object"}
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(contentSchema)

// ErrInvalidContent wraps schema violations.
var ErrInvalidContent = fmt.Errorf("resume content: %w", apperr.ErrInvalid)

// Parse validates raw JSON against the content schema and decodes it.
// An empty payload yields empty content.
func Parse(raw []byte) (Content, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Content{}.Normalize(), nil
	}
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Content{}, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if !res.Valid() {
		return Content{}, fmt.Errorf("%w: %s", ErrInvalidContent, describe(res.Errors()))
	}
	var c Content
	if err := json.Unmarshal(raw, &c); err != nil {
		return Content{}, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return c.Normalize(), nil
}

// Validate checks already-decoded content, e.g. parser output.
func Validate(c Content) error {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(c))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if !res.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidContent, describe(res.Errors()))
	}
	return nil
}

func describe(errs []gojsonschema.ResultError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}
