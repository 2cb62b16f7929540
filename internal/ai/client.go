// Package ai defines the interfaces the report and infographic packages use to
// reach the generative-AI provider, and provides a Gemini-backed
// implementation of both.
package ai

import (
	"context"

	"google.golang.org/genai"
)

// Source is one citation taken from a grounded response. Title defaults to
// "Source" and URI to PlaceholderURI when the provider omits them; callers
// decide whether placeholder entries are worth keeping.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// PlaceholderURI marks a grounding chunk that carried no web URI.
const PlaceholderURI = "#"

// GroundedText is the result of a search-grounded text generation call.
type GroundedText struct {
	// Text is the concatenated text of the first candidate. Never empty on a
	// nil error.
	Text string

	// Sources lists every grounding chunk of the first candidate, in order,
	// including placeholder entries.
	Sources []Source
}

// TextGenerator is the interface the report fetcher uses for the data call.
// Tests inject a stub that returns canned responses.
type TextGenerator interface {
	// GenerateGroundedText sends prompt with search grounding enabled.
	// Implementations must be safe to call concurrently.
	GenerateGroundedText(ctx context.Context, prompt string) (GroundedText, error)
}

// ImageGenerator is the interface the infographic service uses for the
// image call.
type ImageGenerator interface {
	// GenerateImage returns a "data:image/png;base64,..." URI for prompt, or
	// an error of kind KindNoImage when the provider returned no inline data.
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// ContentGenerator is the slice of the genai SDK the Gemini client needs.
// *genai.Models satisfies it; tests substitute a stub.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}
