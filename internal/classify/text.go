package classify

import "strings"

// ParseText reads the line oriented reply format
//
//	Category: <Category>
//	Severity: <Severity>
//	Description: <Description>
//
// into a raw field map suitable for Normalize. Keys are case-insensitive,
// markdown emphasis around keys and values is stripped, and unknown keys are
// ignored.
func ParseText(text string) map[string]any {
	raw := map[string]any{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.Trim(strings.TrimSpace(key), "*_ "))
		value = strings.Trim(strings.TrimSpace(value), "*_ ")
		switch key {
		case FieldCategory, FieldSeverity, FieldDescription:
			if _, seen := raw[key]; !seen {
				raw[key] = value
			}
		}
	}
	return raw
}
