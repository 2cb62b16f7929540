// Package infographic owns the fixed catalog of infographic prompts and the
// flow that turns one of them into an image for a page session.
package infographic

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// ErrUnknownPrompt is returned for an id that is not in the catalog.
var ErrUnknownPrompt = errors.New("infographic: unknown prompt")

// Prompt is one catalog entry.
type Prompt struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Text        string `yaml:"prompt" json:"prompt"`
}

// Catalog is an immutable, ordered set of prompts.
type Catalog struct {
	prompts []Prompt
	byID    map[string]int
}

// DefaultCatalog returns the embedded catalog. It panics if the embedded file
// is invalid, which the package tests rule out.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(promptsYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCatalog reads a catalog from YAML. Every entry needs an id, a title
// and a prompt, and ids must be unique.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Prompts []Prompt `yaml:"prompts"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("infographic: parse catalog: %w", err)
	}
	if len(doc.Prompts) == 0 {
		return nil, errors.New("infographic: catalog is empty")
	}

	c := &Catalog{byID: make(map[string]int, len(doc.Prompts))}
	var errs []error
	for i, p := range doc.Prompts {
		p.ID = strings.TrimSpace(p.ID)
		switch {
		case p.ID == "":
			errs = append(errs, fmt.Errorf("prompt %d: missing id", i))
			continue
		case strings.TrimSpace(p.Title) == "":
			errs = append(errs, fmt.Errorf("prompt %q: missing title", p.ID))
		case strings.TrimSpace(p.Text) == "":
			errs = append(errs, fmt.Errorf("prompt %q: missing prompt text", p.ID))
		}
		if _, dup := c.byID[p.ID]; dup {
			errs = append(errs, fmt.Errorf("prompt %q: duplicate id", p.ID))
			continue
		}
		c.byID[p.ID] = len(c.prompts)
		c.prompts = append(c.prompts, p)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("infographic: invalid catalog: %w", err)
	}
	return c, nil
}

// All returns the prompts in catalog order.
func (c *Catalog) All() []Prompt {
	return append([]Prompt(nil), c.prompts...)
}

// Lookup returns the prompt with id.
func (c *Catalog) Lookup(id string) (Prompt, error) {
	i, ok := c.byID[id]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %q", ErrUnknownPrompt, id)
	}
	return c.prompts[i], nil
}
