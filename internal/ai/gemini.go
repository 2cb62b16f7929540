package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DataURIPrefix is prepended to the base64 image bytes.
const DataURIPrefix = "data:image/png;base64,"

// Provider is a backend that serves both the data call and the image call.
type Provider interface {
	TextGenerator
	ImageGenerator
}

// GeminiConfig selects models and the fixed image configuration.
type GeminiConfig struct {
	TextModel   string // e.g. "gemini-2.5-flash"
	ImageModel  string // e.g. "gemini-3-pro-image-preview"
	AspectRatio string // e.g. "16:9"
	ImageSize   string // e.g. "2K"
}

func (c GeminiConfig) withDefaults() GeminiConfig {
	if c.TextModel == "" {
		c.TextModel = "gemini-2.5-flash"
	}
	if c.ImageModel == "" {
		c.ImageModel = "gemini-3-pro-image-preview"
	}
	if c.AspectRatio == "" {
		c.AspectRatio = "16:9"
	}
	if c.ImageSize == "" {
		c.ImageSize = "2K"
	}
	return c
}

// GeminiClient is the concrete Provider backed by the Gemini API.
type GeminiClient struct {
	models ContentGenerator
	cfg    GeminiConfig
}

// NewGeminiClient builds a genai client for the Gemini API backend.
//   - apiKey:  your GEMINI_API_KEY; an empty key is an invalid-credential error
//   - baseURL: optional endpoint override, empty for the SDK default
func NewGeminiClient(ctx context.Context, apiKey, baseURL string, cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &Error{Kind: KindInvalidCredential, Op: "new client", Err: ErrNoCredential}
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("ai: create gemini client: %w", err)
	}
	return NewGeminiClientWith(client.Models, cfg), nil
}

// NewGeminiClientWith wraps an existing ContentGenerator. Used by
// NewGeminiClient and by tests.
func NewGeminiClientWith(models ContentGenerator, cfg GeminiConfig) *GeminiClient {
	return &GeminiClient{models: models, cfg: cfg.withDefaults()}
}

// GenerateGroundedText sends prompt to the text model with the Google Search
// tool enabled and returns the response text plus its grounding sources.
func (c *GeminiClient) GenerateGroundedText(ctx context.Context, prompt string) (GroundedText, error) {
	resp, err := c.models.GenerateContent(ctx, c.cfg.TextModel, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return GroundedText{}, wrap("generate text", err)
	}
	if resp == nil {
		return GroundedText{}, wrap("generate text", ErrEmptyResponse)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return GroundedText{}, wrap("generate text", ErrEmptyResponse)
	}

	return GroundedText{Text: text, Sources: groundingSources(resp)}, nil
}

// GenerateImage sends prompt to the image model with the fixed aspect ratio
// and size, and returns the first inline-data part as a data URI.
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.models.GenerateContent(ctx, c.cfg.ImageModel, contents, &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: c.cfg.AspectRatio,
			ImageSize:   c.cfg.ImageSize,
		},
	})
	if err != nil {
		return "", wrap("generate image", err)
	}

	if uri, ok := firstInlineImage(resp); ok {
		return uri, nil
	}
	return "", &Error{Kind: KindNoImage, Op: "generate image", Err: ErrNoImageGenerated}
}

func firstInlineImage(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return "", false
	}
	for _, part := range cand.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		return DataURIPrefix + base64.StdEncoding.EncodeToString(part.InlineData.Data), true
	}
	return "", false
}

func groundingSources(resp *genai.GenerateContentResponse) []Source {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return nil
	}

	sources := make([]Source, 0, len(gm.GroundingChunks))
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil {
			continue
		}
		src := Source{Title: "Source", URI: PlaceholderURI}
		if chunk.Web != nil {
			if chunk.Web.Title != "" {
				src.Title = chunk.Web.Title
			}
			if chunk.Web.URI != "" {
				src.URI = chunk.Web.URI
			}
		}
		sources = append(sources, src)
	}
	return sources
}

// ─── UNAVAILABLE PROVIDER ─────────────────────────────────────────────────────

type unavailable struct {
	err error
}

// Unavailable returns a Provider whose every call fails with err. main wires
// it in when no API key is configured so the data call falls back and the
// image call reports an invalid credential.
func Unavailable(err error) Provider {
	if err == nil {
		err = ErrNoCredential
	}
	return unavailable{err: err}
}

func (u unavailable) GenerateGroundedText(context.Context, string) (GroundedText, error) {
	return GroundedText{}, wrap("generate text", u.err)
}

func (u unavailable) GenerateImage(context.Context, string) (string, error) {
	return "", wrap("generate image", u.err)
}
