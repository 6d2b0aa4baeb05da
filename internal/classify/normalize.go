// Package classify turns loosely typed classifier output into a
// domain.Classification. It is the only place raw classifier fields are
// interpreted; every missing or malformed value is replaced by its
// documented fallback and reported as a Warning.
package classify

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spec-kit/grievance-desk/internal/domain"
)

// Raw field names accepted from the classifier.
const (
	FieldCategory    = "category"
	FieldSeverity    = "severity"
	FieldDescription = "description"
	FieldLat         = "lat"
	FieldLong        = "long"
	FieldPhotoURL    = "photo_url"
	FieldChatID      = "chat_id"
)

// Payload keys understood by FromPayload in addition to the raw fields.
const (
	FieldText            = "text"
	FieldClassifierError = "classifier_error"
)

// Warning reports a classifier field that was replaced by a fallback.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Field + ": " + w.Message
}

var categoryAliases = map[string]string{
	"pothole":       domain.CategoryPothole,
	"potholes":      domain.CategoryPothole,
	"road":          domain.CategoryPothole,
	"roads":         domain.CategoryPothole,
	"garbage":       domain.CategoryGarbage,
	"sanitation":    domain.CategoryGarbage,
	"streetlight":   domain.CategoryStreetlight,
	"street light":  domain.CategoryStreetlight,
	"streetlights":  domain.CategoryStreetlight,
	"water":         domain.CategoryWater,
	"water leakage": domain.CategoryWater,
	"water leak":    domain.CategoryWater,
	"other":         domain.CategoryOther,
}

// Normalize validates a raw classifier result. It never fails: the
// returned classification is always usable to open a ticket.
func Normalize(raw map[string]any) (domain.Classification, []Warning) {
	var warnings []Warning
	warn := func(field, format string, args ...any) {
		warnings = append(warnings, Warning{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	out := domain.Classification{
		Category: domain.CategoryOther,
		Severity: domain.SeverityMedium,
	}

	if category, ok := stringField(raw, FieldCategory); ok && category != "" {
		out.Category = canonicalCategory(category)
	} else {
		warn(FieldCategory, "missing or not text; using %q", domain.CategoryOther)
	}

	if severity, ok := stringField(raw, FieldSeverity); ok && severity != "" {
		parsed, known := ParseSeverity(severity)
		if !known {
			warn(FieldSeverity, "unknown value %q; using %q", severity, domain.SeverityMedium)
		}
		out.Severity = parsed
	} else {
		warn(FieldSeverity, "missing or not text; using %q", domain.SeverityMedium)
	}

	if description, ok := stringField(raw, FieldDescription); ok {
		out.Description = description
	} else {
		warn(FieldDescription, "missing or not text; using empty description")
	}

	_, hasLat := raw[FieldLat]
	_, hasLong := raw[FieldLong]
	if hasLat || hasLong {
		lat, latOK := numberField(raw, FieldLat)
		long, longOK := numberField(raw, FieldLong)
		switch {
		case !latOK || !longOK:
			warn("location", "lat/long missing or not numeric; location dropped")
		case lat < -90 || lat > 90 || long < -180 || long > 180:
			warn("location", "coordinates out of range; location dropped")
		default:
			out.Location = &domain.Location{Lat: lat, Long: long}
		}
	}

	if photo, ok := stringField(raw, FieldPhotoURL); ok {
		out.PhotoURL = photo
	}
	switch chat := raw[FieldChatID].(type) {
	case string:
		out.ChatID = strings.TrimSpace(chat)
	case float64:
		out.ChatID = strconv.FormatFloat(chat, 'f', -1, 64)
	}

	return out, warnings
}

// Fallback returns the classification used when the classifier call
// failed outright.
func Fallback(reason string) (domain.Classification, []Warning) {
	classification := domain.Classification{
		Category: domain.CategoryOther,
		Severity: domain.SeverityMedium,
	}
	return classification, []Warning{{Field: "classifier", Message: "classification unavailable: " + reason}}
}

// ParseSeverity maps a severity label onto the ordered scale. Unknown
// labels clamp to Medium and report false.
func ParseSeverity(raw string) (domain.Severity, bool) {
	value := strings.TrimSpace(raw)
	for _, severity := range domain.Severities {
		if strings.EqualFold(value, string(severity)) {
			return severity, true
		}
	}
	return domain.SeverityMedium, false
}

func canonicalCategory(raw string) string {
	if canonical, ok := categoryAliases[strings.ToLower(raw)]; ok {
		return canonical
	}
	return raw
}

func stringField(raw map[string]any, key string) (string, bool) {
	val, ok := raw[key]
	if !ok || val == nil {
		return "", false
	}
	str, ok := val.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(str), true
}

func numberField(raw map[string]any, key string) (float64, bool) {
	var value float64
	switch v := raw[key].(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		value = parsed
	default:
		return 0, false
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// FromPayload normalizes an intake payload. The payload may carry the
// classifier fields directly, a plain-text classifier reply under "text",
// or a "classifier_error" describing a failed classification call, in which
// case the classification fields fall back to their defaults.
func FromPayload(payload map[string]any) (domain.Classification, []Warning) {
	raw := make(map[string]any, len(payload))
	for k, v := range payload {
		raw[k] = v
	}

	if reason, ok := stringField(raw, FieldClassifierError); ok && reason != "" {
		delete(raw, FieldCategory)
		delete(raw, FieldSeverity)
		delete(raw, FieldDescription)
		classification, warnings := Normalize(raw)
		fallback, fallbackWarnings := Fallback(reason)
		classification.Category = fallback.Category
		classification.Severity = fallback.Severity
		for _, w := range warnings {
			switch w.Field {
			case FieldCategory, FieldSeverity, FieldDescription:
				continue
			}
			fallbackWarnings = append(fallbackWarnings, w)
		}
		return classification, fallbackWarnings
	}

	if text, ok := stringField(raw, FieldText); ok && text != "" {
		for k, v := range ParseText(text) {
			if _, present := raw[k]; !present {
				raw[k] = v
			}
		}
	}
	return Normalize(raw)
}
