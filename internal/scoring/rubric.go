// Package scoring rates a pitch transcript against a fixed rubric with an
// LLM and validates the structured result.
package scoring

import (
	"fmt"
	"strings"

	"github.com/fpang/pitch-scorer/internal/assets"
)

// ResultType selects the rubric.
type ResultType string

const (
	Behavior ResultType = "behavior"
	Skill    ResultType = "skill"
)

// ResultTypes lists every result type in the order the pipeline scores them.
var ResultTypes = []ResultType{Behavior, Skill}

// ParseResultType accepts "behavior"/"behaviour"/"skill" in any case.
func ParseResultType(s string) (ResultType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "behavior", "behaviour", "behaviors":
		return Behavior, nil
	case "skill", "skills":
		return Skill, nil
	}
	return "", fmt.Errorf("unknown result type %q (want behavior or skill)", s)
}

var behaviorRubric = []assets.Criterion{
	{Name: "Conviction", Description: "Will build the idea even if nobody supports it."},
	{Name: "Relentless", Description: "Always has choices and creates them if there aren't any."},
	{Name: "Resilience/Grit", Description: "Tries very hard before giving up."},
	{Name: "Curiosity", Description: "Always asking questions and has a high learning ability."},
	{Name: "Reliable", Description: "Does what is agreed to, within the time window."},
	{Name: "Believable", Description: "Words matter when they are said."},
	{Name: "Courage", Description: "Willingness to try and fail, go against the world if required."},
	{Name: "Innovative", Description: "Ability to imagine, then build those things from scratch."},
	{Name: "Energy", Description: "Limitless ability to keep going at whatever is needed to be done."},
	{Name: "Trustworthy", Description: "Keeps promises and avoids withholding information."},
	{Name: "Inspirational", Description: "Being a leader to bring teams together."},
	{Name: "Clarity", Description: "The thought process is consistent and accurate."},
}

var skillRubric = []assets.Criterion{
	{Name: "Analytical", Description: "Recognizes patterns and processes large amounts of information into big-picture insights."},
	{Name: "Communication", Description: "Shares new ideas and the company vision effectively."},
	{Name: "Judgement", Description: "Makes decisions that move an idea toward success."},
	{Name: "Negotiation", Description: "Works with others to reach mutually beneficial outcomes."},
	{Name: "Problem Solving", Description: "Defines problems clearly and finds solutions."},
	{Name: "Financial", Description: "Handles financial matters and monetization strategy."},
	{Name: "Technical", Description: "Knows the technology and industry specific to the startup."},
	{Name: "Sales and Marketing", Description: "Promotes the product and solves customer needs."},
	{Name: "Project Management", Description: "Plans and organizes work to hit goals."},
	{Name: "Network Building", Description: "Fosters and maintains valuable relationships."},
}

// Rubric returns the criteria for t in prompt order.
func Rubric(t ResultType) []assets.Criterion {
	switch t {
	case Behavior:
		return behaviorRubric
	case Skill:
		return skillRubric
	}
	return nil
}

// CriterionNames returns the criterion names for t in prompt order.
func CriterionNames(t ResultType) []string {
	r := Rubric(t)
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return names
}

func (t ResultType) plural() string {
	if t == Behavior {
		return "behaviors"
	}
	return "skills"
}
