package resume

import (
	"errors"
	"strings"
	"testing"

	"portfolio-backend/internal/shared/apperr"
)

func TestNormalizeFillsMissingSections(t *testing.T) {
	c := Content{
		Name:     "Alice",
		Projects: []Project{{Name: "portify"}},
	}.Normalize()

	if c.Skills == nil || c.Links == nil || c.Experience == nil || c.Education == nil || c.Certifications == nil {
		t.Fatalf("expected empty sections, got %+v", c)
	}
	if c.Projects[0].Stack == nil || c.Projects[0].Highlights == nil {
		t.Fatalf("expected nested slices to be empty, got %+v", c.Projects[0])
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Content{
		Name:       "Alice",
		Skills:     []string{"go"},
		Experience: []Experience{{Company: "Acme", Highlights: []string{"shipped"}}},
		Projects:   []Project{{Name: "p", Stack: []string{"pg"}}},
	}
	cp := orig.Clone()
	orig.Skills[0] = "rust"
	orig.Experience[0].Highlights[0] = "rewrote"
	orig.Projects[0].Stack[0] = "mysql"

	if cp.Skills[0] != "go" {
		t.Fatalf("skills leaked through clone")
	}
	if cp.Experience[0].Highlights[0] != "shipped" {
		t.Fatalf("experience highlights leaked through clone")
	}
	if cp.Projects[0].Stack[0] != "pg" {
		t.Fatalf("project stack leaked through clone")
	}
}

func TestParseAcceptsPartialContent(t *testing.T) {
	c, err := Parse([]byte(`{"name":"Alice","skills":["go","sql"]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Name != "Alice" || len(c.Skills) != 2 {
		t.Fatalf("unexpected content: %+v", c)
	}
	if c.Experience == nil {
		t.Fatalf("missing sections should default to empty")
	}
}

func TestParseEmptyPayload(t *testing.T) {
	c, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Skills == nil {
		t.Fatalf("expected normalized empty content")
	}
}

func TestParseRejectsWrongTypes(t *testing.T) {
	_, err := Parse([]byte(`{"name":42,"skills":"go"}`))
	if err == nil {
		t.Fatalf("expected schema error")
	}
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("expected invalid kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "name") {
		t.Fatalf("expected field name in error, got %v", err)
	}
}

func TestValidateDecodedContent(t *testing.T) {
	if err := Validate(Content{Name: "Alice"}.Normalize()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	long := Content{Name: strings.Repeat("a", 201)}
	if err := Validate(long); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
}
