package feeds

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"newscast/internal/config"
	"newscast/internal/textutil"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// GeneralCategory is assigned when no keyword table or source default applies.
const GeneralCategory = "general"

// Source kinds understood by Build.
const (
	KindRSS  = "rss"
	KindHTML = "html"
)

// Catalog lists upstream sources and the keyword tables used to categorize
// their articles.
type Catalog struct {
	Categories []CategorySpec `yaml:"categories"`
	Sources    []SourceSpec   `yaml:"sources"`

	phrases [][]string
}

// CategorySpec is one keyword table. Keywords match whole words or phrases
// after accent and case folding.
type CategorySpec struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// SourceSpec describes one upstream source.
type SourceSpec struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	URL      string `yaml:"url"`
	Selector string `yaml:"selector,omitempty"`
	Limit    int    `yaml:"limit,omitempty"`
	Category string `yaml:"category,omitempty"`
}

// LoadCatalog reads the catalog named by cfg.CatalogPath, or the built-in
// catalog when the path is empty.
func LoadCatalog(cfg config.Collector) (*Catalog, error) {
	data := defaultCatalog
	if path := strings.TrimSpace(cfg.CatalogPath); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read feed catalog: %w", err)
		}
		data = raw
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse feed catalog: %w", err)
	}
	if err := catalog.validate(); err != nil {
		return nil, err
	}
	catalog.compile()
	return &catalog, nil
}

func (c *Catalog) validate() error {
	if len(c.Sources) == 0 {
		return errors.New("feed catalog has no sources")
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		name := strings.TrimSpace(src.Name)
		if name == "" {
			return fmt.Errorf("feed catalog source %d has no name", i+1)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("feed catalog source %q listed twice", name)
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(src.URL) == "" {
			return fmt.Errorf("feed catalog source %q has no url", name)
		}
		switch src.Kind {
		case KindRSS:
		case KindHTML:
			if strings.TrimSpace(src.Selector) == "" {
				return fmt.Errorf("feed catalog source %q: html sources need a selector", name)
			}
		default:
			return fmt.Errorf("feed catalog source %q: unknown kind %q", name, src.Kind)
		}
	}
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("feed catalog category %d has no name", i+1)
		}
		if len(cat.Keywords) == 0 {
			return fmt.Errorf("feed catalog category %q has no keywords", cat.Name)
		}
	}
	return nil
}

func (c *Catalog) compile() {
	c.phrases = make([][]string, len(c.Categories))
	for i := range c.Categories {
		c.Categories[i].Name = strings.ToLower(strings.TrimSpace(c.Categories[i].Name))
		for _, kw := range c.Categories[i].Keywords {
			if norm := textutil.NormalizeTitle(kw); norm != "" {
				c.phrases[i] = append(c.phrases[i], " "+norm+" ")
			}
		}
	}
	for i := range c.Sources {
		c.Sources[i].Name = strings.TrimSpace(c.Sources[i].Name)
		c.Sources[i].Category = strings.ToLower(strings.TrimSpace(c.Sources[i].Category))
	}
}

// CategoryNames returns the keyword table names in catalog order.
func (c *Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return names
}

// HasCategory reports whether name is a known category, including general.
func (c *Catalog) HasCategory(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == GeneralCategory {
		return true
	}
	for _, cat := range c.Categories {
		if cat.Name == name {
			return true
		}
	}
	return false
}

// Categorize assigns the first category whose keywords appear in the title or
// summary. sourceDefault is used when nothing matches.
func (c *Catalog) Categorize(title, summary, sourceDefault string) string {
	text := " " + textutil.NormalizeTitle(title+" "+summary) + " "
	for i, phrases := range c.phrases {
		for _, phrase := range phrases {
			if strings.Contains(text, phrase) {
				return c.Categories[i].Name
			}
		}
	}
	if sourceDefault != "" {
		return sourceDefault
	}
	return GeneralCategory
}
