package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"pitch-pipeline/internal/models"
)

func promptResult() *models.AcquisitionResult {
	return &models.AcquisitionResult{
		ID:              "dQw4w9WgXcQ",
		ContentKind:     models.KindShorts,
		Title:           "One-pan dinner hack",
		Description:     "A thirty-second trick for faster weeknight dinners.",
		DurationSeconds: 42,
		Tags:            []string{"cooking", "hacks"},
	}
}

func TestBuildPromptIncludesContent(t *testing.T) {
	result := promptResult()
	prompt := BuildPrompt(models.KindShorts, PromptParams{Result: result})

	assert.Contains(t, prompt, "One-pan dinner hack")
	assert.Contains(t, prompt, "thirty-second trick")
	assert.Contains(t, prompt, "Duration: 42 seconds")
	assert.Contains(t, prompt, "cooking, hacks")
	assert.Contains(t, prompt, "short-form vertical video")
	assert.Contains(t, prompt, `"generatedPitch"`)
}

func TestBuildPromptPerKindWording(t *testing.T) {
	result := promptResult()

	shorts := BuildPrompt(models.KindShorts, PromptParams{Result: result})
	video := BuildPrompt(models.KindVideo, PromptParams{Result: result})
	unknown := BuildPrompt(models.KindUnknown, PromptParams{Result: result})

	assert.Contains(t, shorts, "hook")
	assert.Contains(t, video, "long-form video")
	assert.Contains(t, unknown, "conservative")
	assert.NotEqual(t, shorts, video)
}

func TestBuildPromptUnknownKindFallsBack(t *testing.T) {
	result := promptResult()
	prompt := BuildPrompt(models.ContentKind("podcast"), PromptParams{Result: result})
	assert.Contains(t, prompt, "conservative")
}

func TestBuildPromptDeterministic(t *testing.T) {
	result := promptResult()
	params := PromptParams{Result: result, Tone: "playful", Audience: "home cooks", MaxPitchChars: 500}

	first := BuildPrompt(models.KindShorts, params)
	second := BuildPrompt(models.KindShorts, params)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "playful")
	assert.Contains(t, first, "home cooks")
	assert.Contains(t, first, "500 characters")
}

func TestBuildPromptDefaults(t *testing.T) {
	prompt := BuildPrompt(models.KindVideo, PromptParams{Result: promptResult()})
	assert.Contains(t, prompt, "energetic but credible")
	assert.Contains(t, prompt, "general audience")
	assert.Contains(t, prompt, "1200 characters")
}

func TestBuildPromptCarriesWarningAndEnrichment(t *testing.T) {
	result := promptResult()
	result.Warning = "Result derived from the URL pattern only; no metadata available."
	result.Transcript = "Chop everything the night before."
	result.Enrichment = &models.Enrichment{
		ContentSummary: "A prep-ahead cooking trick.",
		SceneBreakdown: []string{"intro", "the trick", "payoff"},
	}

	prompt := BuildPrompt(models.KindShorts, PromptParams{Result: result})
	assert.Contains(t, prompt, "Data caveat:")
	assert.Contains(t, prompt, "Chop everything")
	assert.Contains(t, prompt, "A prep-ahead cooking trick.")
	assert.Contains(t, prompt, "intro | the trick | payoff")
}

func TestBuildPromptTruncatesLongDescription(t *testing.T) {
	result := promptResult()
	result.Description = strings.Repeat("very long description ", 200)

	prompt := BuildPrompt(models.KindVideo, PromptParams{Result: result})
	assert.Less(t, strings.Index(prompt, "INSTRUCTIONS"), len(prompt))
	assert.NotContains(t, prompt, result.Description, "over-long descriptions must be truncated")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}
