package generation

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"pitch-pipeline/internal/models"
	"pitch-pipeline/shared/config"
)

// Generator is the single structured-output service: it drives the
// generative model and normalizes its raw text through the repair parser.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	repairer    *Repairer
	limits      Limits
}

func NewGenerator(cfg *config.Config) (*Generator, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.AI.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	limits := LimitsFrom(cfg.Parser)
	return &Generator{
		client:      client,
		model:       cfg.AI.PitchModel,
		temperature: cfg.AI.Temperature,
		maxTokens:   cfg.AI.MaxOutputTokens,
		repairer:    NewRepairer(limits),
		limits:      limits,
	}, nil
}

// Generate builds the prompt for the acquired content, calls the model, and
// repairs the response into a schema-valid record. On total repair failure
// it returns a locally synthesized record tagged with the failure, so
// callers always get a valid record.
func (g *Generator) Generate(ctx context.Context, result *models.AcquisitionResult, params PromptParams) (*models.StructuredRecord, error) {
	params.Result = result
	if params.MaxPitchChars == 0 {
		params.MaxPitchChars = g.limits.MaxPitchChars
	}
	prompt := BuildPrompt(result.ContentKind, params)

	raw, err := g.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("pitch generation for %s failed: %w", result.ID, err)
	}

	record, failure := g.repairer.Repair(raw)
	if failure != nil {
		log.Printf("Pitch for %s unrepairable, synthesizing locally: %v", result.ID, failure)
		return SynthesizeRecord(result, g.limits), nil
	}
	return record, nil
}

// Complete performs one raw model call with the configured generation
// options and returns the response text untouched.
func (g *Generator) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", models.Errorf(models.ErrMalformedResponse, "empty model response")
	}
	return text, nil
}

// Repair exposes the repair parser directly for callers that drive the
// model themselves.
func (g *Generator) Repair(raw string) (*models.StructuredRecord, *RepairFailure) {
	return g.repairer.Repair(raw)
}

// SynthesizeRecord builds a deterministic local record from acquisition
// data alone, for when the model output is unrepairable. The pitch is
// padded to the schema minimum from whatever content text exists.
func SynthesizeRecord(result *models.AcquisitionResult, limits Limits) *models.StructuredRecord {
	title := result.Title
	if title == "" {
		title = "this content"
	}

	pitch := fmt.Sprintf("Check out %s — %s", title,
		firstSentence(result.Description, "a piece of content worth your attention."))
	for len(pitch) < limits.MinPitchChars {
		pitch += " Watch it now to see for yourself."
	}
	if len(pitch) > limits.MaxPitchChars {
		pitch = pitch[:limits.MaxPitchChars]
	}

	topics := result.Tags
	if len(topics) > limits.MaxTopics {
		topics = topics[:limits.MaxTopics]
	}
	if len(topics) == 0 {
		topics = []string{truncate(title, 60)}
	}

	return &models.StructuredRecord{
		Analysis: models.PitchAnalysis{
			KeyTopics:      topics,
			Sentiment:      "neutral",
			CoreMessage:    truncate(firstSentence(result.Description, title), 160),
			TargetAudience: "general audience",
		},
		GeneratedPitch: pitch,
		Rationale:      "Synthesized locally from content metadata after model output could not be repaired.",
	}
}

func firstSentence(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if idx := strings.IndexAny(s, ".!?\n"); idx > 0 {
		return s[:idx+1]
	}
	return truncate(s, 200)
}
