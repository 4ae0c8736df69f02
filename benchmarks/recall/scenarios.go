// ABOUTME: Scenario data for personalization recall benchmarks
// ABOUTME: Each scenario seeds a selection history and probes it with live situations

package recall

import "github.com/harper/echomind/internal/models"

// Scenario is a seeded history plus the situations used to probe it
type Scenario struct {
	ID          string
	Name        string
	Description string
	History     []Observation
	Probes      []Probe
}

// Observation is one phrase selection in the seeded history, recorded
// Repeat times (at least once)
type Observation struct {
	UserID   string
	Category models.Category
	Phrase   string
	Context  models.ContextFields
	Repeat   int
}

// Probe is a live situation and what personalization should surface for it
type Probe struct {
	UserID   string
	Category models.Category
	Context  models.ContextFields
	Limit    int

	// ExpectedSimilar must appear among the similar matches
	ExpectedSimilar []string

	// ExpectedTop must appear among the most frequent phrases
	ExpectedTop []string

	// ExpectedInHint must appear in the hint text
	ExpectedInHint []string

	// Forbidden must not appear in any result for this user
	Forbidden []string

	// FirstTime expects the first-time hint
	FirstTime bool
}

// Result is the outcome of one scenario
type Result struct {
	ScenarioID    string   `json:"scenario_id"`
	ScenarioName  string   `json:"scenario_name"`
	SimilarRecall float64  `json:"similar_recall"`
	TopRecall     float64  `json:"top_recall"`
	HintScore     float64  `json:"hint_score"`
	OverallScore  float64  `json:"overall_score"`
	AvgLatencyMS  float64  `json:"avg_latency_ms"`
	Degraded      int      `json:"degraded_records"`
	Status        string   `json:"status"`
	Failures      []string `json:"failures,omitempty"`
}

var (
	schoolMorning = models.ContextFields{TimeOfDay: models.Morning, DayOfWeek: "Monday", Location: "school"}
	homeEvening   = models.ContextFields{TimeOfDay: models.Evening, DayOfWeek: "Friday", Location: "home"}
	parkAfternoon = models.ContextFields{TimeOfDay: models.Afternoon, DayOfWeek: "Saturday", Location: "park"}
)

// GetRoutine returns the daily routine scenario: the same category in two
// different situations should surface different phrases.
func GetRoutine() Scenario {
	return Scenario{
		ID:          "routine",
		Name:        "Daily routine",
		Description: "School mornings and home evenings in the same category surface their own phrases",
		History: []Observation{
			{UserID: "sam", Category: models.CategoryBodyNeeds, Phrase: "I'm hungry", Context: schoolMorning, Repeat: 2},
			{UserID: "sam", Category: models.CategoryBodyNeeds, Phrase: "Water please", Context: schoolMorning},
			{UserID: "sam", Category: models.CategoryBodyNeeds, Phrase: "I'm tired", Context: homeEvening, Repeat: 2},
			{UserID: "sam", Category: models.CategoryFeelings, Phrase: "Too loud", Context: homeEvening},
		},
		Probes: []Probe{
			{
				UserID:          "sam",
				Category:        models.CategoryBodyNeeds,
				Context:         schoolMorning,
				Limit:           3,
				ExpectedSimilar: []string{"I'm hungry", "Water please"},
				ExpectedTop:     []string{"I'm hungry", "I'm tired"},
				ExpectedInHint:  []string{"In similar situations", "I'm hungry"},
			},
			{
				UserID:          "sam",
				Category:        models.CategoryBodyNeeds,
				Context:         homeEvening,
				Limit:           2,
				ExpectedSimilar: []string{"I'm tired"},
				ExpectedInHint:  []string{"I'm tired"},
			},
		},
	}
}

// GetFirstTime returns the cold start scenario
func GetFirstTime() Scenario {
	return Scenario{
		ID:          "first_time",
		Name:        "First time",
		Description: "A user with no history gets the first-time hint",
		Probes: []Probe{
			{
				UserID:    "newcomer",
				Category:  models.CategoryHelpSafety,
				Context:   parkAfternoon,
				FirstTime: true,
			},
		},
	}
}

// GetIsolation returns the multi-user scenario: identical situations of
// another user never leak into results.
func GetIsolation() Scenario {
	return Scenario{
		ID:          "isolation",
		Name:        "User isolation",
		Description: "Two users in identical situations only see their own phrases",
		History: []Observation{
			{UserID: "ana", Category: models.CategoryActivities, Phrase: "Push me on the swing", Context: parkAfternoon, Repeat: 3},
			{UserID: "ben", Category: models.CategoryActivities, Phrase: "Let's play tag", Context: parkAfternoon, Repeat: 3},
		},
		Probes: []Probe{
			{
				UserID:          "ana",
				Category:        models.CategoryActivities,
				Context:         parkAfternoon,
				ExpectedSimilar: []string{"Push me on the swing"},
				ExpectedTop:     []string{"Push me on the swing"},
				ExpectedInHint:  []string{"Push me on the swing"},
				Forbidden:       []string{"Let's play tag"},
			},
			{
				UserID:          "ben",
				Category:        models.CategoryActivities,
				Context:         parkAfternoon,
				ExpectedSimilar: []string{"Let's play tag"},
				ExpectedTop:     []string{"Let's play tag"},
				Forbidden:       []string{"Push me on the swing"},
			},
		},
	}
}

// GetAllScenarios returns every scenario in run order
func GetAllScenarios() []Scenario {
	return []Scenario{
		GetRoutine(),
		GetFirstTime(),
		GetIsolation(),
	}
}
