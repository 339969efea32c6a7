package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeCatalogFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing catalog file: %v", err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeCatalogFile(t, "questions.json", `[
		{"question": "Do you enjoy working with people?", "category": "Social"},
		{"question": "Do you like solving puzzles?"}
	]`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Len() != 2 {
		t.Fatalf("expected 2 questions, got %d", c.Len())
	}

	texts := c.Texts()
	if texts[0] != "Do you enjoy working with people?" {
		t.Fatalf("unexpected first question: %q", texts[0])
	}
	if texts[1] != "Do you like solving puzzles?" {
		t.Fatalf("unexpected second question: %q", texts[1])
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeCatalogFile(t, "questions.yaml", `
- question: Do you prefer indoor or outdoor work?
  category: Environment
- question: Are deadlines motivating for you?
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Len() != 2 {
		t.Fatalf("expected 2 questions, got %d", c.Len())
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.json")
			},
		},
		{
			name: "not a list",
			path: func(t *testing.T) string {
				return writeCatalogFile(t, "bad.json", `{"question": "alone"}`)
			},
		},
		{
			name: "entry without question text",
			path: func(t *testing.T) string {
				return writeCatalogFile(t, "empty.json", `[{"category": "Social"}]`)
			},
		},
		{
			name: "empty list",
			path: func(t *testing.T) string {
				return writeCatalogFile(t, "none.json", `[]`)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.path(t))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrCatalogLoad) {
				t.Fatalf("expected ErrCatalogLoad, got %v", err)
			}
		})
	}
}

func TestGroupByCategory(t *testing.T) {
	path := writeCatalogFile(t, "questions.json", `[
		{"question": "q1", "category": "Social"},
		{"question": "q2"},
		{"question": "q3", "category": "Social"}
	]`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	groups := c.GroupByCategory()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups["Social"]) != 2 {
		t.Fatalf("expected 2 social questions, got %d", len(groups["Social"]))
	}
	if len(groups[DefaultCategory]) != 1 {
		t.Fatalf("expected 1 uncategorized question, got %d", len(groups[DefaultCategory]))
	}
}

func TestQuestionsReturnsCopy(t *testing.T) {
	path := writeCatalogFile(t, "questions.json", `[{"question": "q1"}]`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	qs := c.Questions()
	qs[0].Text = "mutated"

	if c.Texts()[0] != "q1" {
		t.Fatal("catalog must stay immutable after Questions()")
	}
}
