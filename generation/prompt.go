package generation

import (
	"fmt"
	"strings"

	"pitch-pipeline/internal/models"
)

// PromptParams carries everything the prompt template needs. All per-kind
// variation lives in promptStyles as data, so callers never branch on kind.
type PromptParams struct {
	Result        *models.AcquisitionResult
	Tone          string
	Audience      string
	MaxPitchChars int
}

// promptStyle is the kind-specific wording of the pitch brief.
type promptStyle struct {
	label       string
	contentNote string
	pitchGuide  string
}

var promptStyles = map[models.ContentKind]promptStyle{
	models.KindShorts: {
		label:       "short-form vertical video",
		contentNote: "Short-form content lives or dies by its hook; weight the first seconds heavily.",
		pitchGuide:  "Write a punchy pitch that mirrors the video's pace. Lead with the hook.",
	},
	models.KindVideo: {
		label:       "long-form video",
		contentNote: "Long-form content builds its argument over time; identify the through-line.",
		pitchGuide:  "Write a pitch that captures the video's core argument and payoff.",
	},
	models.KindUnknown: {
		label:       "video",
		contentNote: "The content kind could not be determined; keep claims conservative.",
		pitchGuide:  "Write a cautious pitch grounded only in the provided metadata.",
	},
}

// BuildPrompt renders the generation prompt for a content kind. It is a
// pure function of its parameters.
func BuildPrompt(kind models.ContentKind, params PromptParams) string {
	style, ok := promptStyles[kind]
	if !ok {
		style = promptStyles[models.KindUnknown]
	}

	result := params.Result

	var context strings.Builder
	fmt.Fprintf(&context, "Title: %s\n", result.Title)
	fmt.Fprintf(&context, "Description: %s\n", truncate(result.Description, 1000))
	if result.DurationSeconds > 0 {
		fmt.Fprintf(&context, "Duration: %d seconds\n", result.DurationSeconds)
	}
	if len(result.Tags) > 0 {
		fmt.Fprintf(&context, "Tags: %s\n", strings.Join(result.Tags, ", "))
	}
	if result.Transcript != "" {
		fmt.Fprintf(&context, "Transcript: %s\n", truncate(result.Transcript, 4000))
	}
	if e := result.Enrichment; e != nil {
		if e.ContentSummary != "" {
			fmt.Fprintf(&context, "Content summary: %s\n", e.ContentSummary)
		}
		if len(e.SceneBreakdown) > 0 {
			fmt.Fprintf(&context, "Scenes: %s\n", strings.Join(e.SceneBreakdown, " | "))
		}
	}
	if result.Warning != "" {
		fmt.Fprintf(&context, "Data caveat: %s\n", result.Warning)
	}

	tone := params.Tone
	if tone == "" {
		tone = "energetic but credible"
	}
	audience := params.Audience
	if audience == "" {
		audience = "a general audience"
	}
	maxChars := params.MaxPitchChars
	if maxChars == 0 {
		maxChars = 1200
	}

	return fmt.Sprintf(`You are a marketing copywriter analyzing a %s to produce a promotional pitch.

%s

CONTENT:
%s
INSTRUCTIONS:
1. Analyze the content above
2. %s
3. Tone: %s. Audience: %s.
4. Keep the pitch under %d characters.

Respond in the following JSON format only, with no surrounding text:
{
  "analysis": {
    "keyTopics": ["up to 8 short topic phrases"],
    "sentiment": "positive | neutral | negative",
    "coreMessage": "one sentence capturing the content's core message",
    "targetAudience": "who this content is for"
  },
  "generatedPitch": "the promotional pitch text",
  "rationale": "one or two sentences on why this pitch fits"
}`,
		style.label, style.contentNote, context.String(), style.pitchGuide, tone, audience, maxChars)
}

func truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
