package routing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleTable = `
routes:
  - category: Pothole
    primary: Eng A
    secondary: Eng B
    sla_hours: 24
  - category: Garbage
    primary: Sanitation L1
    secondary: Sanitation L2
    sla_hours: 12.5
`

func TestParseValidTable(t *testing.T) {
	table, err := Parse([]byte(sampleTable))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}
	entry, ok := table.Lookup("Pothole")
	if !ok {
		t.Fatal("Pothole should be routed")
	}
	if entry.Primary != "Eng A" || entry.Secondary != "Eng B" || entry.SLAHours != 24 {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.SLA() != 24*time.Hour {
		t.Fatalf("SLA = %v, want 24h", entry.SLA())
	}
	garbage, _ := table.Lookup("Garbage")
	if garbage.SLA() != 12*time.Hour+30*time.Minute {
		t.Fatalf("fractional SLA = %v", garbage.SLA())
	}
}

func TestLookupIsExactMatch(t *testing.T) {
	table, err := Parse([]byte(sampleTable))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, category := range []string{"pothole", "POTHOLE", " Pothole", "Potholes", ""} {
		if _, ok := table.Lookup(category); ok {
			t.Errorf("Lookup(%q) matched, want absent", category)
		}
	}
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"missing sla": `
routes:
  - category: Pothole
    primary: A
    secondary: B
`,
		"zero sla": `
routes:
  - category: Pothole
    primary: A
    secondary: B
    sla_hours: 0
`,
		"negative sla": `
routes:
  - category: Pothole
    primary: A
    secondary: B
    sla_hours: -3
`,
		"non numeric sla": `
routes:
  - category: Pothole
    primary: A
    secondary: B
    sla_hours: soon
`,
		"missing primary": `
routes:
  - category: Pothole
    secondary: B
    sla_hours: 4
`,
		"missing secondary": `
routes:
  - category: Pothole
    primary: A
    sla_hours: 4
`,
		"duplicate category": `
routes:
  - category: Pothole
    primary: A
    secondary: B
    sla_hours: 4
  - category: Pothole
    primary: C
    secondary: D
    sla_hours: 8
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	if err := os.WriteFile(path, []byte(sampleTable), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entries := table.Entries()
	if len(entries) != 2 || entries[0].Category != "Garbage" || entries[1].Category != "Pothole" {
		t.Fatalf("Entries not sorted by category: %+v", entries)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read routing table") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestNilTableLookup(t *testing.T) {
	var table *Table
	if _, ok := table.Lookup("Pothole"); ok {
		t.Fatal("nil table should route nothing")
	}
}
