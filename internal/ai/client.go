// Package ai wraps the Gemini prompts used by the shop: moderation, product
// copywriting, stock advice, visual search and recommendations.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// ErrNotConfigured is returned by every flow when no API key was provided.
var ErrNotConfigured = errors.New("AI service is not configured")

// DefaultModel is used when the configuration leaves the model empty.
const DefaultModel = "gemini-2.5-flash"

// generator is the subset of *genai.Models the flows need.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Flows runs the prompts against one model. The zero value is usable and
// answers ErrNotConfigured.
type Flows struct {
	gen   generator
	model string
	log   logrus.FieldLogger
}

// New creates the Gemini client. An empty apiKey yields unconfigured flows
// rather than an error so the shop can run without AI features.
func New(ctx context.Context, apiKey, model string, log logrus.FieldLogger) (*Flows, error) {
	f := &Flows{model: model, log: log.WithField("module", "ai")}
	if f.model == "" {
		f.model = DefaultModel
	}
	if apiKey == "" {
		f.log.Warn("GEMINI_API_KEY not set, AI flows disabled")
		return f, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	f.gen = client.Models
	return f, nil
}

// Configured reports whether the flows can reach a model.
func (f *Flows) Configured() bool {
	return f != nil && f.gen != nil
}

// generateJSON sends parts as one user turn, constrains the answer to schema
// and decodes it into out.
func (f *Flows) generateJSON(ctx context.Context, flow string, parts []*genai.Part, schema *genai.Schema, out any) error {
	if !f.Configured() {
		return ErrNotConfigured
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := f.gen.GenerateContent(ctx, f.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return fmt.Errorf("%s: generate: %w", flow, err)
	}
	if err := decodeJSON(resp.Text(), out); err != nil {
		return fmt.Errorf("%s: %w", flow, err)
	}
	f.log.WithField("flow", flow).Debug("AI flow completed")
	return nil
}

// decodeJSON tolerates a markdown fence around the payload.
func decodeJSON(text string, out any) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	if text == "" {
		return errors.New("empty model response")
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("invalid model response: %w", err)
	}
	return nil
}

func objectSchema(required []string, props map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func stringSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func stringArraySchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Description: desc, Items: &genai.Schema{Type: genai.TypeString}}
}
