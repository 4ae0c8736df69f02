// ABOUTME: Tests for context summary formatting and time bucketing
// ABOUTME: The summary format must stay byte-stable across releases
package models

import (
	"testing"
	"time"
)

func TestBuildContextSummary(t *testing.T) {
	tests := []struct {
		name     string
		category string
		fields   ContextFields
		want     string
	}{
		{
			name:     "all fields",
			category: "Body & Needs",
			fields:   ContextFields{TimeOfDay: "morning", DayOfWeek: "Monday", Location: "kitchen"},
			want:     "Category: Body & Needs. Time of day: morning. Day: Monday. Location: kitchen",
		},
		{
			name:     "missing fields default to unknown",
			category: "Help & Safety",
			fields:   ContextFields{TimeOfDay: "evening"},
			want:     "Category: Help & Safety. Time of day: evening. Day: unknown. Location: unknown",
		},
		{
			name:     "blank is unknown",
			category: "Feelings & Sensory",
			fields:   ContextFields{TimeOfDay: "  ", DayOfWeek: "", Location: ""},
			want:     "Category: Feelings & Sensory. Time of day: unknown. Day: unknown. Location: unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildContextSummary(tt.category, tt.fields)
			if got != tt.want {
				t.Errorf("BuildContextSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildContextSummary_DefaultsMatchExplicitUnknown(t *testing.T) {
	implicit := BuildContextSummary("Body & Needs", ContextFields{TimeOfDay: "morning"})
	explicit := BuildContextSummary("Body & Needs", ContextFields{TimeOfDay: "morning", DayOfWeek: Unknown, Location: Unknown})
	if implicit != explicit {
		t.Errorf("implicit %q != explicit %q", implicit, explicit)
	}
}

func TestBuildContextSummary_TrimsFields(t *testing.T) {
	padded := BuildContextSummary("Body & Needs", ContextFields{TimeOfDay: " morning ", DayOfWeek: "Monday\t", Location: "  "})
	clean := BuildContextSummary("Body & Needs", ContextFields{TimeOfDay: "morning", DayOfWeek: "Monday"})
	if padded != clean {
		t.Errorf("padded %q != clean %q", padded, clean)
	}
}

func TestTimeOfDayBucket(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, Morning},
		{11, Morning},
		{12, Afternoon},
		{16, Afternoon},
		{17, Evening},
		{23, Evening},
	}

	for _, tt := range tests {
		at := time.Date(2026, 10, 16, tt.hour, 30, 0, 0, time.UTC)
		if got := TimeOfDayBucket(at); got != tt.want {
			t.Errorf("TimeOfDayBucket(%02d:30) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestContextAt(t *testing.T) {
	at := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) // a Friday
	got := ContextAt(at, "school")
	if got.TimeOfDay != Morning {
		t.Errorf("TimeOfDay = %q, want morning", got.TimeOfDay)
	}
	if got.DayOfWeek != "Friday" {
		t.Errorf("DayOfWeek = %q, want Friday", got.DayOfWeek)
	}
	if got.Location != "school" {
		t.Errorf("Location = %q, want school", got.Location)
	}
}
