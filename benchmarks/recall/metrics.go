// ABOUTME: Scoring functions for personalization recall benchmarks
// ABOUTME: Recall of expected phrases and hint content checks

package recall

import (
	"fmt"
	"strings"
)

// PassThreshold is the minimum overall score for a scenario to pass
const PassThreshold = 0.8

// Recall returns the fraction of expected phrases present in got.
// An empty expectation scores 1.
func Recall(got, expected []string) float64 {
	if len(expected) == 0 {
		return 1.0
	}
	present := make(map[string]bool, len(got))
	for _, g := range got {
		present[g] = true
	}
	found := 0
	for _, e := range expected {
		if present[e] {
			found++
		}
	}
	return float64(found) / float64(len(expected))
}

// Leaks returns the forbidden phrases that appear in got or in hint
func Leaks(got []string, hint string, forbidden []string) []string {
	var leaked []string
	for _, f := range forbidden {
		if containsString(got, f) || strings.Contains(hint, f) {
			leaked = append(leaked, f)
		}
	}
	return leaked
}

// HintScore checks the hint against a probe. It returns 1 when every
// expectation holds and 0 otherwise, with the reasons for failure.
func HintScore(hint, firstTimeHint string, probe Probe) (float64, []string) {
	var failures []string

	if probe.FirstTime && hint != firstTimeHint {
		failures = append(failures, fmt.Sprintf("expected first-time hint, got %q", hint))
	}
	if !probe.FirstTime && hint == firstTimeHint {
		failures = append(failures, "unexpected first-time hint")
	}
	for _, want := range probe.ExpectedInHint {
		if !strings.Contains(hint, want) {
			failures = append(failures, fmt.Sprintf("hint missing %q", want))
		}
	}

	if len(failures) > 0 {
		return 0, failures
	}
	return 1, nil
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
