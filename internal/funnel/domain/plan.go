package domain

import "strings"

// Plan is the product offering recommended at the end of the funnel.
// The values are the display names sent in the lead payload.
type Plan string

const (
	PlanPrivate   Plan = "Private Tutoring Program"
	PlanGroup     Plan = "Unlimited Group Classes"
	PlanBundle    Plan = "Fluent Bundle"
	PlanKids      Plan = "Spanish for Kids Program"
	PlanFamily    Plan = "Family Classes"
	PlanCorporate Plan = "Corporate Spanish Training"
)

// rule is one row of the recommendation table. A row with an empty
// questionID matches on path alone.
type rule struct {
	path       Path
	questionID string
	optionID   string
	plan       Plan
}

// rules is the prioritized recommendation table, evaluated top to bottom;
// the first matching row wins. Rows key on option IDs, never on display
// text, so copy edits cannot change which plan a visitor gets.
var rules = []rule{
	{PathAdult, "q4a", "coach", PlanPrivate},
	{PathAdult, "q4a", "classroom", PlanGroup},
	{PathAdult, "q4a", "combination", PlanBundle},
	{PathAdult, "", "", PlanPrivate},
	{PathChild, "", "", PlanKids},
	{PathFamily, "", "", PlanFamily},
	{PathCompany, "", "", PlanCorporate},
}

// defaultPlan is the fallback when no rule matches, including for an unset
// or unknown path.
const defaultPlan = PlanPrivate

// Recommend maps a path and the visitor's committed choices (question ID →
// option ID; multi-select values are comma-joined) to a plan. Deterministic:
// the same inputs always yield the same plan.
func Recommend(path Path, choices map[string]string) Plan {
	for _, r := range rules {
		if r.path != path {
			continue
		}
		if r.questionID == "" {
			return r.plan
		}
		if choiceContains(choices[r.questionID], r.optionID) {
			return r.plan
		}
	}
	return defaultPlan
}

// choiceContains reports whether a committed choice value includes the
// option ID. Single-select values are the ID itself; multi-select values
// are IDs joined by commas.
func choiceContains(value, optionID string) bool {
	if value == optionID {
		return true
	}
	for _, part := range strings.Split(value, ",") {
		if part == optionID {
			return true
		}
	}
	return false
}
