// ABOUTME: Situational context captured with each phrase selection
// ABOUTME: BuildContextSummary is the single formatter shared by store and query paths
package models

import (
	"fmt"
	"strings"
	"time"
)

// Unknown is the value used for any context field that was not supplied.
const Unknown = "unknown"

// Time-of-day buckets.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
)

// ContextFields describes the situation a phrase was (or will be) spoken in.
type ContextFields struct {
	TimeOfDay string `json:"time_of_day,omitempty"`
	DayOfWeek string `json:"day_of_week,omitempty"`
	Location  string `json:"location,omitempty"`
}

// WithDefaults returns a trimmed copy with every blank field set to Unknown.
func (c ContextFields) WithDefaults() ContextFields {
	return ContextFields{
		TimeOfDay: orUnknown(c.TimeOfDay),
		DayOfWeek: orUnknown(c.DayOfWeek),
		Location:  orUnknown(c.Location),
	}
}

// ContextAt derives time-of-day and day-of-week from t. location may be empty.
func ContextAt(t time.Time, location string) ContextFields {
	return ContextFields{
		TimeOfDay: TimeOfDayBucket(t),
		DayOfWeek: t.Weekday().String(),
		Location:  location,
	}
}

// TimeOfDayBucket maps an hour to morning (<12), afternoon (<17) or evening.
func TimeOfDayBucket(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return Morning
	case h < 17:
		return Afternoon
	default:
		return Evening
	}
}

// BuildContextSummary formats the text that gets embedded for a situation.
// Recording and retrieval must both go through here or similarity scores
// stop meaning anything.
func BuildContextSummary(category string, fields ContextFields) string {
	f := fields.WithDefaults()
	return fmt.Sprintf("Category: %s. Time of day: %s. Day: %s. Location: %s",
		category, f.TimeOfDay, f.DayOfWeek, f.Location)
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown
	}
	return s
}
