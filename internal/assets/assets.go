// Package assets embeds the prompt templates used by the transcription and
// scoring steps.
package assets
