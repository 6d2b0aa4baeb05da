package routing

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Entry maps one category to its responsible parties and SLA.
type Entry struct {
	Category  string
	Primary   string
	Secondary string
	SLAHours  float64
}

// SLA returns the threshold as a duration.
func (e Entry) SLA() time.Duration {
	return time.Duration(e.SLAHours * float64(time.Hour))
}

// Table is an immutable category lookup built once at startup.
type Table struct {
	entries map[string]Entry
}

type fileEntry struct {
	Category  string   `yaml:"category"`
	Primary   string   `yaml:"primary"`
	Secondary string   `yaml:"secondary"`
	SLAHours  *float64 `yaml:"sla_hours"`
}

type fileFormat struct {
	Routes []fileEntry `yaml:"routes"`
}

// Load reads and validates a routing table YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routing table: %w", err)
	}
	return Parse(data)
}

// Parse decodes a routing table document. Every entry needs a category,
// primary, secondary and a positive sla_hours.
func Parse(data []byte) (*Table, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode routing table: %w", err)
	}
	entries := make([]Entry, 0, len(doc.Routes))
	var errs []error
	for i, raw := range doc.Routes {
		if raw.SLAHours == nil {
			errs = append(errs, fmt.Errorf("route %d (%q): sla_hours is required", i, raw.Category))
			continue
		}
		entries = append(entries, Entry{
			Category:  raw.Category,
			Primary:   raw.Primary,
			Secondary: raw.Secondary,
			SLAHours:  *raw.SLAHours,
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return New(entries)
}

// New validates entries and builds a Table.
func New(entries []Entry) (*Table, error) {
	table := &Table{entries: make(map[string]Entry, len(entries))}
	var errs []error
	for i, entry := range entries {
		if err := validate(entry); err != nil {
			errs = append(errs, fmt.Errorf("route %d (%q): %w", i, entry.Category, err))
			continue
		}
		if _, exists := table.entries[entry.Category]; exists {
			errs = append(errs, fmt.Errorf("route %d: duplicate category %q", i, entry.Category))
			continue
		}
		table.entries[entry.Category] = entry
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return table, nil
}

func validate(e Entry) error {
	switch {
	case strings.TrimSpace(e.Category) == "":
		return errors.New("category is required")
	case strings.TrimSpace(e.Primary) == "":
		return errors.New("primary is required")
	case strings.TrimSpace(e.Secondary) == "":
		return errors.New("secondary is required")
	case math.IsNaN(e.SLAHours) || math.IsInf(e.SLAHours, 0) || e.SLAHours <= 0:
		return fmt.Errorf("sla_hours must be a positive number, got %v", e.SLAHours)
	}
	return nil
}

// Lookup returns the entry for an exact, case-sensitive category match.
func (t *Table) Lookup(category string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	entry, ok := t.entries[category]
	return entry, ok
}

// Entries returns all entries sorted by category.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, len(t.entries))
	for _, entry := range t.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Len reports the number of routed categories.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
