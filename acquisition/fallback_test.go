package acquisition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitch-pipeline/internal/models"
)

func shortsRef() models.Reference {
	return models.Reference{
		ID:   "dQw4w9WgXcQ",
		Kind: models.KindShorts,
		URL:  "https://youtube.com/shorts/dQw4w9WgXcQ",
	}
}

func TestTierConfidencesStrictlyDescending(t *testing.T) {
	assert.Greater(t, ConfidenceEnhanced, ConfidenceStandard)
	assert.Greater(t, ConfidenceStandard, ConfidenceMetadataOnly)
	assert.Greater(t, ConfidenceMetadataOnly, ConfidenceURLPattern)
	assert.Greater(t, ConfidenceURLPattern, ConfidenceTemplate)
	assert.Greater(t, ConfidenceTemplate, ConfidenceStub)
	assert.Greater(t, ConfidenceTemplate, MinimumConfidence)
	assert.Less(t, ConfidenceStub, MinimumConfidence)
}

func TestRunFallbacksPicksFirstTierAboveFloor(t *testing.T) {
	cause := errors.New("metadata api down")
	result := runFallbacks(shortsRef(), cause)

	require.NotNil(t, result)
	assert.Equal(t, models.StrategyMetadataOnly, result.StrategyUsed)
	assert.Equal(t, ConfidenceMetadataOnly, result.Confidence)
	assert.Equal(t, "dQw4w9WgXcQ", result.ID)
	assert.Equal(t, models.KindShorts, result.ContentKind)
	assert.NotEmpty(t, result.Warning, "degraded results must carry a warning")
	assert.Empty(t, result.Error, "a usable fallback is not an error result")
}

func TestRunFallbacksDegradedFlag(t *testing.T) {
	// Metadata reconstruction sits above the soft-error line, so the
	// first fallback result is usable but not degraded.
	result := runFallbacks(shortsRef(), nil)
	assert.False(t, result.Degraded)

	// The template tier sits below the line.
	tmpl := staticTemplate(shortsRef(), nil)
	assert.Less(t, tmpl.Confidence, DegradedThreshold)
}

func TestEmergencyStubCarriesCause(t *testing.T) {
	cause := models.Errorf(models.ErrUpstreamUnavailable, "all tiers exhausted")
	stub := emergencyStub(shortsRef(), cause)

	assert.Equal(t, models.StrategyEmergencyStub, stub.StrategyUsed)
	assert.Equal(t, ConfidenceStub, stub.Confidence)
	assert.True(t, stub.Degraded)
	assert.Contains(t, stub.Error, "all tiers exhausted")
	assert.NotEmpty(t, stub.Title, "even the stub must be renderable")
}

func TestEmergencyStubNilCause(t *testing.T) {
	stub := emergencyStub(shortsRef(), nil)
	assert.Equal(t, "unknown failure", stub.Error)
}

func TestInvalidReferenceResult(t *testing.T) {
	result := invalidReferenceResult("https://example.com/not-a-video")

	assert.Zero(t, result.Confidence)
	assert.Equal(t, models.KindUnknown, result.ContentKind)
	assert.True(t, result.Degraded)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, "https://example.com/not-a-video", result.SourceIdentifier)
}

func TestStaticTemplatePerKind(t *testing.T) {
	short := staticTemplate(shortsRef(), nil)
	assert.Contains(t, short.Description, "short-form")

	video := staticTemplate(models.Reference{ID: "abc12345678", Kind: models.KindVideo}, nil)
	assert.NotContains(t, video.Description, "short-form")
	assert.Contains(t, video.Title, "video")
}
