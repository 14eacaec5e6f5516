// Package profile renders an application record as the plain-text company
// profile handed to the scoring model.
package profile

import (
	"strings"

	"github.com/fpang/pitch-scorer/internal/sheets"
)

const (
	fieldVision   = "What is your vision for the company?"
	fieldMission  = "What is the greater mission beyond building a profitable business?"
	fieldSolution = "Describe your solution in detail"
)

var (
	marketFields = []string{
		"How large do you think your solution's market is in Crores",
		"What do you think will be the contribution margin % of the business in 5 years?",
		"Large Competition",
		"Mid Size Competition",
		"Small Competition",
		"What is the market share of the 3 largest competitors?",
		"How would you best describe the product status of your competition today?",
		"How would you best describe the tech status of your competition today?",
	}
	customerFields = []string{
		"What is your customer type?",
		"Within India what geography and demography is your customer in?",
		"What business size are you focused on?",
		"Which sectors are your customers in?",
		"What is the annual pricing of your product?",
		"In Urban what gender is your focus?",
		"In Rural what gender is your focus?",
		"Choose your target age group",
		"What is the target group's income level?",
		"How much of their annual income could they spend on your product?",
	}
	// Self-assessed ratings, 1-5.
	skillFields = []string{
		"Analytical", "Communication", "Judgement", "Negotiation", "Problem Solving",
		"Financial", "Technical", "Sales and Marketing", "Project Management",
		"Network Building", "Product Management",
	}
	traitFields = []string{
		"Conviction/Belief", "Relentlessness", "Resilience", "Curiosity", "Reliability",
		"Courage", "Innovative", "Energetic", "Inspiring", "Clear Thinking", "Pace of Execution",
	}
	productFields = []string{
		"What will your product require to be used?",
		"How many potential users are available for your product?",
		"What is the level of R&D in Engineering required in your company?",
		"Intellectual Property",
		"What is your expected Gross Margin?",
		"How is your marketing likely to be",
		"How is your product delivery likely to be",
	}
	backgroundFields = []string{
		"What is your biggest success and why?",
		"What is your biggest failure and why?",
		"What is a new concept you learnt recently?",
		"What have you built before as a team?",
		"Describe your progress with potential customers",
	}
)

// Format renders rec. Columns listed in excluded never appear. Columns not
// claimed by a section are listed under "Additional Information" in sheet
// order. Output is deterministic for a given record.
func Format(rec sheets.Record, excluded []string) string {
	skip := make(map[string]bool, len(excluded))
	for _, c := range excluded {
		skip[c] = true
	}
	value := func(field string) string {
		if skip[field] {
			return ""
		}
		return rec.Field(field)
	}

	var b strings.Builder
	b.WriteString("COMPANY PROFILE\n" + strings.Repeat("=", 50) + "\n\n")

	section(&b, "Basic Information", false)
	for _, f := range []struct{ label, field string }{
		{"Vision", fieldVision},
		{"Mission", fieldMission},
		{"Solution", fieldSolution},
	} {
		if v := value(f.field); v != "" {
			b.WriteString(f.label + ": " + v + "\n\n")
		}
	}

	section(&b, "Market Information", true)
	writeFields(&b, marketFields, value)

	section(&b, "Customer Information", true)
	writeFields(&b, customerFields, value)

	section(&b, "Team Skills and Traits", true)
	b.WriteString("Skills (rated 1-5):\n")
	writeBullets(&b, skillFields, value)
	b.WriteString("\nTraits (rated 1-5):\n")
	writeBullets(&b, traitFields, value)

	section(&b, "Product Information", true)
	writeFields(&b, productFields, value)

	section(&b, "Team Background", true)
	for _, f := range backgroundFields {
		if v := value(f); v != "" {
			b.WriteString(f + ":\n" + v + "\n\n")
		}
	}

	claimed := make(map[string]bool)
	for _, group := range [][]string{
		{fieldVision, fieldMission, fieldSolution},
		marketFields, customerFields, skillFields, traitFields, productFields, backgroundFields,
	} {
		for _, f := range group {
			claimed[f] = true
		}
	}
	var extra []string
	for _, c := range rec.Columns {
		if claimed[c] || skip[c] {
			continue
		}
		if v := rec.Field(c); v != "" {
			extra = append(extra, c+": "+v)
		}
	}
	if len(extra) > 0 {
		section(&b, "Additional Information", true)
		for _, line := range extra {
			b.WriteString(line + "\n")
		}
	}

	return b.String()
}

func section(b *strings.Builder, title string, leadingBlank bool) {
	if leadingBlank {
		b.WriteString("\n")
	}
	b.WriteString(title + ":\n" + strings.Repeat("-", 20) + "\n")
}

func writeFields(b *strings.Builder, fields []string, value func(string) string) {
	for _, f := range fields {
		if v := value(f); v != "" {
			b.WriteString(f + ": " + v + "\n")
		}
	}
}

func writeBullets(b *strings.Builder, fields []string, value func(string) string) {
	for _, f := range fields {
		if v := value(f); v != "" {
			b.WriteString("- " + f + ": " + v + "\n")
		}
	}
}
