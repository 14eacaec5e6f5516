package assets

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

// TranscriptionPrompt instructs the model to return a verbatim transcript.
//
//go:embed prompts/transcription.txt
var TranscriptionPrompt string

//go:embed prompts/scoring-system.txt
var scoringSystemTemplate string

//go:embed prompts/scoring-user.txt
var scoringUserTemplate string

var (
	funcs = template.FuncMap{"inc": func(i int) int { return i + 1 }}

	scoringSystemTmpl = template.Must(template.New("scoring-system").Funcs(funcs).Parse(scoringSystemTemplate))
	scoringUserTmpl   = template.Must(template.New("scoring-user").Parse(scoringUserTemplate))
)

// Criterion is one rubric entry rendered into the system prompt.
type Criterion struct {
	Name        string
	Description string
}

// ScoringSystemData is the input to the scoring system prompt.
type ScoringSystemData struct {
	Kind     string // "behaviors" or "skills"
	Criteria []Criterion
}

// ScoringUserData is the input to the scoring user prompt.
type ScoringUserData struct {
	Transcript string
	Profile    string
}

// RenderScoringSystemPrompt renders the rubric-specific system prompt.
func RenderScoringSystemPrompt(data ScoringSystemData) (string, error) {
	return render(scoringSystemTmpl, data)
}

// RenderScoringUserPrompt renders the per-application user prompt.
func RenderScoringUserPrompt(data ScoringUserData) (string, error) {
	return render(scoringUserTmpl, data)
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
