// ABOUTME: PhraseRecord is one stored phrase selection with its embedded context
// ABOUTME: Also defines search results and the selection event that creates records
package models

import "time"

// PhraseRecord is a phrase the user selected, stored with its context.
// Records are never updated once stored.
type PhraseRecord struct {
	ID             uint64    `json:"id"`
	Seq            int64     `json:"seq"`
	UserID         string    `json:"user_id"`
	Category       string    `json:"category"`
	Phrase         string    `json:"phrase"`
	TimeOfDay      string    `json:"time_of_day"`
	DayOfWeek      string    `json:"day_of_week"`
	Location       string    `json:"location"`
	ContextSummary string    `json:"context_summary"`
	Embedding      []float32 `json:"-"`
	Degraded       bool      `json:"degraded"`
	Timestamp      time.Time `json:"timestamp"`
}

// Context returns the situational fields of the record.
func (r *PhraseRecord) Context() ContextFields {
	return ContextFields{
		TimeOfDay: r.TimeOfDay,
		DayOfWeek: r.DayOfWeek,
		Location:  r.Location,
	}
}

// ScoredRecord is a record returned from a similarity search.
type ScoredRecord struct {
	Record PhraseRecord `json:"record"`
	Score  float64      `json:"score"`
}

// SimilarMatch is the retriever's view of a past situation.
type SimilarMatch struct {
	Phrase    string  `json:"phrase"`
	Category  string  `json:"category"`
	TimeOfDay string  `json:"time_of_day"`
	Score     float64 `json:"similarity_score"`
}

// Selection is the event of a user picking a suggested phrase.
type Selection struct {
	UserID     string        `json:"user_id"`
	Category   string        `json:"category"`
	Phrase     string        `json:"phrase"`
	Context    ContextFields `json:"context"`
	CapturedAt time.Time     `json:"captured_at,omitempty"`
}
