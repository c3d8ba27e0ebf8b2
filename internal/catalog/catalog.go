// Package catalog maps raw metric column names to display categories.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lukefredrickson/nfact-dashboard/internal/utils"
)

type Kind string

const (
	KindPercent Kind = "percent"
	KindCount   Kind = "count"
)

// Entry describes how one metric column is displayed.
type Entry struct {
	Metric      string `yaml:"metric" json:"metric"`
	Group       string `yaml:"group" json:"group"`
	Category    string `yaml:"category" json:"category"`
	SubCategory string `yaml:"sub_category" json:"sub_category"`
	Kind        Kind   `yaml:"kind,omitempty" json:"kind"`
}

// Label is the entry's display name when categories share one axis.
func (e Entry) Label() string {
	if e.SubCategory == "" {
		return e.Category
	}
	return e.Category + ", " + e.SubCategory
}

// Group is a set of entries drawn as one chart.
type Group struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
}

// Field is a text column shown in the details table.
type Field struct {
	Column string `yaml:"column" json:"column"`
	Label  string `yaml:"label" json:"label"`
}

// Catalog is the metric lookup table. It is read-only once parsed.
type Catalog struct {
	Groups  []Group `yaml:"groups"`
	Metrics []Entry `yaml:"metrics"`
	Fields  []Field `yaml:"fields"`

	index  map[string]int
	titles map[string]string
}

// ErrInvalid wraps catalog validation failures.
var ErrInvalid = errors.New("invalid catalog")

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.init(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(b)
}

// Save writes the catalog as YAML, creating parent directories.
func (c *Catalog) Save(path string) error {
	b, err := c.YAML()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir catalog dir: %w", err)
	}
	return utils.SafeWriteFile(path, b)
}

// YAML encodes the catalog.
func (c *Catalog) YAML() ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}
	return b, nil
}

func (c *Catalog) init() error {
	c.index = make(map[string]int, len(c.Metrics))
	c.titles = make(map[string]string, len(c.Groups))
	for _, g := range c.Groups {
		c.titles[g.ID] = g.Title
	}
	for i := range c.Metrics {
		e := &c.Metrics[i]
		e.Metric = strings.TrimSpace(e.Metric)
		if e.Metric == "" {
			return fmt.Errorf("%w: entry %d has no metric", ErrInvalid, i)
		}
		if _, dup := c.index[e.Metric]; dup {
			return fmt.Errorf("%w: duplicate metric %q", ErrInvalid, e.Metric)
		}
		switch e.Kind {
		case "":
			e.Kind = KindPercent
		case KindPercent, KindCount:
		default:
			return fmt.Errorf("%w: metric %q has unknown kind %q", ErrInvalid, e.Metric, e.Kind)
		}
		if e.Category == "" {
			e.Category = e.Metric
		}
		if _, ok := c.titles[e.Group]; !ok {
			c.Groups = append(c.Groups, Group{ID: e.Group, Title: e.Group})
			c.titles[e.Group] = e.Group
		}
		c.index[e.Metric] = i
	}
	return nil
}

// Lookup returns the entry for a metric column.
func (c *Catalog) Lookup(metric string) (Entry, bool) {
	i, ok := c.index[metric]
	if !ok {
		return Entry{}, false
	}
	return c.Metrics[i], true
}

// Title returns the chart title of a group.
func (c *Catalog) Title(group string) string {
	if t, ok := c.titles[group]; ok && t != "" {
		return t
	}
	return group
}

// GroupIDs returns the group identifiers in declaration order.
func (c *Catalog) GroupIDs() []string {
	out := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		out = append(out, g.ID)
	}
	return out
}
