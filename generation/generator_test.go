package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitch-pipeline/internal/models"
)

func TestSynthesizeRecordIsSchemaValid(t *testing.T) {
	limits := testLimits()
	result := &models.AcquisitionResult{
		ID:          "dQw4w9WgXcQ",
		Title:       "One-pan dinner hack",
		Description: "A thirty-second trick for faster weeknight dinners. Plus the chef's secret.",
		Tags:        []string{"cooking", "hacks"},
	}

	record := SynthesizeRecord(result, limits)

	require.NotNil(t, record)
	require.NoError(t, validateRecord(record, limits), "synthesized records must pass the same gate as repaired ones")
	assert.Contains(t, record.GeneratedPitch, "One-pan dinner hack")
	assert.Contains(t, record.Analysis.CoreMessage, "thirty-second trick")
	assert.Equal(t, []string{"cooking", "hacks"}, record.Analysis.KeyTopics)
	assert.NotEmpty(t, record.Rationale)
}

func TestSynthesizeRecordEmptyMetadata(t *testing.T) {
	limits := testLimits()
	record := SynthesizeRecord(&models.AcquisitionResult{ID: "x"}, limits)

	require.NoError(t, validateRecord(record, limits))
	assert.GreaterOrEqual(t, len(record.GeneratedPitch), limits.MinPitchChars,
		"pitch must be padded to the schema minimum even with no metadata")
	assert.NotEmpty(t, record.Analysis.KeyTopics)
}

func TestSynthesizeRecordClampsTopics(t *testing.T) {
	limits := testLimits()
	tags := make([]string, 20)
	for i := range tags {
		tags[i] = strings.Repeat("t", i+1)
	}
	record := SynthesizeRecord(&models.AcquisitionResult{Title: "Tagged", Tags: tags}, limits)

	assert.Len(t, record.Analysis.KeyTopics, limits.MaxTopics)
	require.NoError(t, validateRecord(record, limits))
}

func TestSynthesizeRecordDeterministic(t *testing.T) {
	limits := testLimits()
	result := &models.AcquisitionResult{Title: "Same input", Description: "Same description."}

	first := SynthesizeRecord(result, limits)
	second := SynthesizeRecord(result, limits)
	assert.Equal(t, first, second)
}

func TestFirstSentence(t *testing.T) {
	assert.Equal(t, "First sentence.", firstSentence("First sentence. Second part.", "fb"))
	assert.Equal(t, "Hook!", firstSentence("Hook! More text.", "fb"))
	assert.Equal(t, "fb", firstSentence("   ", "fb"))
	assert.Equal(t, "no punctuation here", firstSentence("no punctuation here", "fb"))
}
