// Package catalog loads the fixed, ordered list of quiz questions served to users.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrCatalogLoad marks any failure to produce a usable catalog at startup.
var ErrCatalogLoad = errors.New("catalog load failed")

// DefaultCategory buckets questions that carry no category of their own.
const DefaultCategory = "General"

// Question is a single quiz prompt. Category is used only for browsing,
// never for quiz ordering.
type Question struct {
	Text     string `mapstructure:"question"`
	Category string `mapstructure:"category"`
}

// Catalog is the ordered, immutable question list loaded once at process start.
type Catalog struct {
	questions []Question
}

// Load reads the question list from a JSON or YAML file. The file must hold
// an ordered list of objects, each with at least a non-empty "question" field.
// Any other shape fails with an error wrapping ErrCatalogLoad.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %w", ErrCatalogLoad, path, err)
	}

	var raw []map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %q: %w", ErrCatalogLoad, path, err)
	}

	questions := make([]Question, 0, len(raw))
	for i, entry := range raw {
		var q Question
		if err := mapstructure.Decode(entry, &q); err != nil {
			return nil, fmt.Errorf("%w: entry %d in %q: %w", ErrCatalogLoad, i, path, err)
		}
		q.Text = strings.TrimSpace(q.Text)
		q.Category = strings.TrimSpace(q.Category)
		if q.Text == "" {
			return nil, fmt.Errorf("%w: entry %d in %q has no question text", ErrCatalogLoad, i, path)
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %q contains no questions", ErrCatalogLoad, path)
	}

	return &Catalog{questions: questions}, nil
}

// Len returns the number of questions.
func (c *Catalog) Len() int {
	return len(c.questions)
}

// Questions returns an ordered copy of all questions.
func (c *Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// Texts returns the ordered question texts. Callers get a fresh slice,
// so the catalog itself stays read-only.
func (c *Catalog) Texts() []string {
	out := make([]string, len(c.questions))
	for i, q := range c.questions {
		out[i] = q.Text
	}
	return out
}

// GroupByCategory partitions questions by category for browsing mode.
// Questions without a category land under DefaultCategory. Order within
// a category is not contractual.
func (c *Catalog) GroupByCategory() map[string][]Question {
	groups := make(map[string][]Question)
	for _, q := range c.questions {
		cat := q.Category
		if cat == "" {
			cat = DefaultCategory
		}
		groups[cat] = append(groups[cat], q)
	}
	return groups
}
