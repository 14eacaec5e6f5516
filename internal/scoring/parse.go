package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/fpang/pitch-scorer/internal/apperr"
)

var schemas = map[ResultType]*gojsonschema.Schema{
	Behavior: mustSchema(Behavior),
	Skill:    mustSchema(Skill),
}

// schemaDoc builds the JSON Schema for t: an object with exactly the rubric
// criteria, each holding a 1-10 rating in half steps, reasoning and optional
// citations.
func schemaDoc(t ResultType) map[string]interface{} {
	assessment := map[string]interface{}{
		"type":     "object",
		"required": []string{"Rating", "Reasoning"},
		"properties": map[string]interface{}{
			"Rating": map[string]interface{}{
				"type":       "number",
				"minimum":    1,
				"maximum":    10,
				"multipleOf": 0.5,
			},
			"Reasoning": map[string]interface{}{"type": "string", "minLength": 1},
			"Citations": map[string]interface{}{"type": "string"},
		},
	}
	props := make(map[string]interface{})
	for _, name := range CriterionNames(t) {
		props[name] = assessment
	}
	return map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"required":             CriterionNames(t),
		"properties":           props,
		"additionalProperties": false,
	}
}

func mustSchema(t ResultType) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaDoc(t)))
	if err != nil {
		panic(fmt.Sprintf("scoring: invalid %s schema: %v", t, err))
	}
	return s
}

// Validate checks raw JSON against the rubric for t. Missing or unexpected
// criteria, out-of-range ratings and wrong types are apperr.ErrScoring.
func Validate(t ResultType, raw []byte) error {
	schema, ok := schemas[t]
	if !ok {
		return apperr.Mark(apperr.Newf("unknown result type %q", t), apperr.ErrScoring)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return apperr.Markf(err, apperr.ErrScoring, "%s result is not valid JSON", t)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return apperr.Mark(
		apperr.Newf("%s result does not match rubric: %s", t, strings.Join(msgs, "; ")),
		apperr.ErrScoring)
}

// Parse extracts the JSON object from raw model output, validates it
// against the rubric for t and decodes it.
func Parse(t ResultType, raw string) (Result, error) {
	text, err := extractJSONObject(stripMarkdownFences(raw))
	if err != nil {
		return nil, apperr.Markf(err, apperr.ErrScoring, "%s response (length %d)", t, len(raw))
	}
	if err := Validate(t, []byte(text)); err != nil {
		return nil, err
	}
	var result Result
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	if err := dec.Decode(&result); err != nil {
		return nil, apperr.Markf(err, apperr.ErrScoring, "decode %s result", t)
	}
	return result, nil
}

// stripMarkdownFences removes a ```json ... ``` wrapper if present.
func stripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}
	end := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.Join(lines[1:end], "\n")
}

// extractJSONObject returns the text between the first '{' and the last '}'.
func extractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", fmt.Errorf("no JSON object found")
	}
	end := strings.LastIndex(text, "}")
	if end < start {
		return "", fmt.Errorf("no closing } found")
	}
	return text[start : end+1], nil
}
