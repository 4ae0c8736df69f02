// ABOUTME: Phrase categories offered to the user on the first screen
// ABOUTME: The set is fixed; callers validate before recording a selection
package models

import (
	"fmt"
	"strings"
)

// Category is one of the four phrase categories.
type Category string

const (
	CategoryBodyNeeds  Category = "Body & Needs"
	CategoryFeelings   Category = "Feelings & Sensory"
	CategoryActivities Category = "Activities & People"
	CategoryHelpSafety Category = "Help & Safety"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryBodyNeeds,
	CategoryFeelings,
	CategoryActivities,
	CategoryHelpSafety,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// String returns the display name.
func (c Category) String() string {
	return string(c)
}

// ParseCategory matches s against the known categories, ignoring case and
// surrounding whitespace. A short alias ("body", "feelings", "activities",
// "help") is accepted for command-line use.
func ParseCategory(s string) (Category, error) {
	trimmed := strings.TrimSpace(s)
	for _, known := range Categories {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}

	switch strings.ToLower(trimmed) {
	case "body", "needs":
		return CategoryBodyNeeds, nil
	case "feelings", "sensory":
		return CategoryFeelings, nil
	case "activities", "people":
		return CategoryActivities, nil
	case "help", "safety":
		return CategoryHelpSafety, nil
	}

	return "", fmt.Errorf("unknown category %q", s)
}
