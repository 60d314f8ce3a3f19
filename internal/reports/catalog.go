// Package reports holds the catalog of named, read-only analytics queries
// and runs them against the store.
package reports

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed default.toml
var defaultCatalog string

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Report is one named query
type Report struct {
	Name        string `toml:"name" json:"name" yaml:"name"`
	Title       string `toml:"title" json:"title" yaml:"title"`
	Description string `toml:"description" json:"description,omitempty" yaml:"description,omitempty"`
	SQL         string `toml:"sql" json:"-" yaml:"-"`
}

type catalogFile struct {
	Reports []Report `toml:"report"`
}

// Catalog is an ordered set of reports keyed by name
type Catalog struct {
	reports []Report
	index   map[string]int
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	reports, err := Parse(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("built-in reports: %w", err)
	}
	c := &Catalog{index: make(map[string]int)}
	if err := c.Merge(reports); err != nil {
		return nil, fmt.Errorf("built-in reports: %w", err)
	}
	return c, nil
}

// Load returns the built-in catalog extended by the TOML file at path. Entries
// in the file replace built-in reports with the same name. An empty path
// returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reports file: %w", err)
	}
	reports, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Merge(reports); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes [[report]] tables and validates each entry. Names must be
// unique within one document.
func Parse(data string) ([]Report, error) {
	var file catalogFile
	meta, err := toml.Decode(data, &file)
	if err != nil {
		return nil, fmt.Errorf("parse reports: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown report key %q", undecoded[0].String())
	}

	seen := make(map[string]bool, len(file.Reports))
	for i := range file.Reports {
		r := &file.Reports[i]
		r.Name = strings.TrimSpace(r.Name)
		r.SQL = strings.TrimSpace(r.SQL)
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate report name %q", r.Name)
		}
		seen[r.Name] = true
	}
	return file.Reports, nil
}

// Validate checks the name and that the statement is a single read query.
func (r Report) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("report name is required")
	}
	if !namePattern.MatchString(r.Name) {
		return fmt.Errorf("report %q: name must be lowercase letters, digits and dashes", r.Name)
	}

	stmt := strings.TrimSuffix(strings.TrimSpace(r.SQL), ";")
	if stmt == "" {
		return fmt.Errorf("report %q: sql is required", r.Name)
	}
	if strings.Contains(stmt, ";") {
		return fmt.Errorf("report %q: sql must be a single statement", r.Name)
	}
	fields := strings.Fields(stmt)
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
	default:
		return fmt.Errorf("report %q: only SELECT or WITH statements are allowed", r.Name)
	}
	return nil
}

// Merge adds reports to the catalog, replacing same-name entries in place.
func (c *Catalog) Merge(reports []Report) error {
	for _, r := range reports {
		if err := r.Validate(); err != nil {
			return err
		}
		if r.Title == "" {
			r.Title = r.Name
		}
		if i, ok := c.index[r.Name]; ok {
			c.reports[i] = r
			continue
		}
		c.index[r.Name] = len(c.reports)
		c.reports = append(c.reports, r)
	}
	return nil
}

// Get looks up a report by name.
func (c *Catalog) Get(name string) (Report, bool) {
	i, ok := c.index[name]
	if !ok {
		return Report{}, false
	}
	return c.reports[i], true
}

// List returns the reports in catalog order.
func (c *Catalog) List() []Report {
	out := make([]Report, len(c.reports))
	copy(out, c.reports)
	return out
}

// Names returns the report names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.reports))
	for i, r := range c.reports {
		names[i] = r.Name
	}
	return names
}
