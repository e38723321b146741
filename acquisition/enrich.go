package acquisition

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"pitch-pipeline/internal/models"
	"pitch-pipeline/shared/config"
)

// Enricher is the deep-analysis contract of the secondary tier.
type Enricher interface {
	Analyze(ctx context.Context, ref models.Reference, base *models.AcquisitionResult) (*models.Enrichment, error)
}

// GeminiEnricher runs the heavy analysis step: the referenced media is
// handed to the model by URI and the response is parsed into an Enrichment
// payload. Only short-form content within the duration cap reaches this
// tier, so the cost per call stays bounded.
type GeminiEnricher struct {
	client       *genai.Client
	model        string
	qualityFloor float64
}

func NewGeminiEnricher(cfg *config.Config) (*GeminiEnricher, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.AI.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiEnricher{
		client:       client,
		model:        cfg.AI.AnalysisModel,
		qualityFloor: cfg.Enrichment.QualityFloor,
	}, nil
}

const enrichmentPrompt = `You are analyzing a short-form video to extract its content in detail.

VIDEO METADATA:
Title: %s
Description: %s
Duration: %d seconds

INSTRUCTIONS:
1. Watch the video content provided
2. Transcribe the spoken audio as accurately as possible
3. Break the video into scenes with one-line descriptions
4. List the characters or speakers that appear
5. Quote the most important dialogue lines

Respond in the following JSON format only:
{
  "generated_transcript": "full transcript of spoken audio",
  "scene_breakdown": ["scene 1 description", "scene 2 description"],
  "characters": ["speaker or character names"],
  "dialogues": ["notable quoted lines"],
  "confidence": number (0.0-1.0, how completely you could analyze the video),
  "content_summary": "2-3 sentence summary of the video"
}`

// Analyze downloads/streams the referenced media into the model and parses
// the structured analysis. Results below the quality floor are discarded;
// token-limit failures surface as resource_exhausted so the pipeline keeps
// the unenriched primary result instead of failing the tier.
func (e *GeminiEnricher) Analyze(ctx context.Context, ref models.Reference, base *models.AcquisitionResult) (*models.Enrichment, error) {
	prompt := fmt.Sprintf(enrichmentPrompt, base.Title, truncate(base.Description, 500), base.DurationSeconds)

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromURI(ref.URL, "video/mp4"),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		if strings.Contains(err.Error(), "token count") || strings.Contains(err.Error(), "INVALID_ARGUMENT") {
			return nil, models.NewError(models.ErrResourceExhausted,
				fmt.Errorf("video %s exceeds analysis input limits: %w", ref.ID, err))
		}
		return nil, fmt.Errorf("deep analysis for %s failed: %w", ref.ID, err)
	}

	text := result.Text()
	if text == "" {
		return nil, models.Errorf(models.ErrMalformedResponse,
			"empty analysis response for %s (possible content filtering)", ref.ID)
	}

	enrichment, err := parseEnrichment(text)
	if err != nil {
		return nil, models.NewError(models.ErrMalformedResponse,
			fmt.Errorf("failed to parse analysis for %s: %w", ref.ID, err))
	}

	if enrichment.Confidence < e.qualityFloor {
		log.Printf("Enrichment for %s below quality floor (%.2f < %.2f), discarding",
			ref.ID, enrichment.Confidence, e.qualityFloor)
		return nil, models.Errorf(models.ErrMalformedResponse,
			"analysis confidence %.2f below floor", enrichment.Confidence)
	}

	return enrichment, nil
}

func parseEnrichment(text string) (*models.Enrichment, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in analysis response")
	}

	var parsed struct {
		GeneratedTranscript string   `json:"generated_transcript"`
		SceneBreakdown      []string `json:"scene_breakdown"`
		Characters          []string `json:"characters"`
		Dialogues           []string `json:"dialogues"`
		Confidence          float64  `json:"confidence"`
		ContentSummary      string   `json:"content_summary"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis JSON: %w", err)
	}

	if parsed.GeneratedTranscript == "" && parsed.ContentSummary == "" {
		return nil, fmt.Errorf("analysis contains neither transcript nor summary")
	}
	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	} else if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}

	return &models.Enrichment{
		GeneratedTranscript: parsed.GeneratedTranscript,
		SceneBreakdown:      parsed.SceneBreakdown,
		Characters:          parsed.Characters,
		Dialogues:           parsed.Dialogues,
		Confidence:          parsed.Confidence,
		ContentSummary:      parsed.ContentSummary,
	}, nil
}

func truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
