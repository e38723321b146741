package acquisition

import (
	"fmt"
	"strings"

	"pitch-pipeline/internal/models"
)

// Tier confidences are fixed and strictly descending so callers can rank
// degraded results. Only tiers above the floor count as usable; the
// emergency stub sits below it and is returned solely as the terminal
// result when everything else failed.
const (
	ConfidenceStandard     = 0.90
	ConfidenceEnhanced     = 0.95
	ConfidenceMetadataOnly = 0.45
	ConfidenceURLPattern   = 0.40
	ConfidenceTemplate     = 0.35
	ConfidenceStub         = 0.10

	// MinimumConfidence gates fallback tier acceptance.
	MinimumConfidence = 0.30

	// DegradedThreshold marks results callers should surface as
	// soft-errors rather than silent low-quality successes.
	DegradedThreshold = 0.40
)

// fallbackTier builds a degraded result from whatever the reference alone
// can tell us. Tiers never call the network.
type fallbackTier func(ref models.Reference, cause error) *models.AcquisitionResult

// fallbackTiers is the descending walk order of step 5.
var fallbackTiers = []fallbackTier{
	metadataReconstruction,
	urlPatternReconstruction,
	staticTemplate,
}

// runFallbacks walks the tiers and returns the first result clearing the
// confidence floor, or the emergency stub when none does.
func runFallbacks(ref models.Reference, cause error) *models.AcquisitionResult {
	for _, tier := range fallbackTiers {
		if result := tier(ref, cause); result.Confidence > MinimumConfidence {
			result.Degraded = result.Confidence < DegradedThreshold
			return result
		}
	}
	return emergencyStub(ref, cause)
}

// metadataReconstruction rebuilds a minimal result from the reference id.
// The id itself is trustworthy (it was pattern-validated), so titles built
// from it are plausible placeholders rather than inventions.
func metadataReconstruction(ref models.Reference, cause error) *models.AcquisitionResult {
	return &models.AcquisitionResult{
		ID:               ref.ID,
		SourceIdentifier: ref.ID,
		ContentKind:      ref.Kind,
		Title:            fmt.Sprintf("%s content %s", kindLabel(ref.Kind), ref.ID),
		Description:      fmt.Sprintf("Metadata service unavailable; reconstructed from reference %s.", ref.ID),
		Confidence:       ConfidenceMetadataOnly,
		StrategyUsed:     models.StrategyMetadataOnly,
		Warning:          "Metadata API unavailable; result reconstructed from the reference id.",
	}
}

// urlPatternReconstruction keeps only what the URL shape proves.
func urlPatternReconstruction(ref models.Reference, cause error) *models.AcquisitionResult {
	return &models.AcquisitionResult{
		ID:               ref.ID,
		SourceIdentifier: ref.ID,
		ContentKind:      ref.Kind,
		Title:            fmt.Sprintf("%s (%s)", kindLabel(ref.Kind), ref.ID),
		Description:      fmt.Sprintf("Content referenced by %s. Only the URL pattern could be verified.", ref.URL),
		Confidence:       ConfidenceURLPattern,
		StrategyUsed:     models.StrategyURLPattern,
		Warning:          "Result derived from the URL pattern only; no metadata available.",
	}
}

// staticTemplate serves boilerplate text per content kind.
func staticTemplate(ref models.Reference, cause error) *models.AcquisitionResult {
	description := "A video whose details could not be retrieved. Treat titles and topics as unknown."
	if ref.Kind == models.KindShorts {
		description = "A short-form vertical video whose details could not be retrieved. Short-form content is typically fast-paced and hook-driven."
	}
	return &models.AcquisitionResult{
		ID:               ref.ID,
		SourceIdentifier: ref.ID,
		ContentKind:      ref.Kind,
		Title:            fmt.Sprintf("Untitled %s", strings.ToLower(kindLabel(ref.Kind))),
		Description:      description,
		Confidence:       ConfidenceTemplate,
		StrategyUsed:     models.StrategyTemplate,
		Warning:          "Static template content; every upstream source was unavailable.",
	}
}

// emergencyStub is the terminal tier: it carries the original error so the
// caller can see why everything degraded, but it is still a result, never
// an exception.
func emergencyStub(ref models.Reference, cause error) *models.AcquisitionResult {
	errText := "unknown failure"
	if cause != nil {
		errText = cause.Error()
	}
	return &models.AcquisitionResult{
		ID:               ref.ID,
		SourceIdentifier: ref.ID,
		ContentKind:      ref.Kind,
		Title:            "Content unavailable",
		Description:      "All acquisition strategies failed for this reference.",
		Confidence:       ConfidenceStub,
		StrategyUsed:     models.StrategyEmergencyStub,
		Warning:          "Emergency stub; no acquisition strategy produced usable content.",
		Error:            errText,
		Degraded:         true,
	}
}

// invalidReferenceResult is the immediate zero-confidence answer for URLs
// matching no known shape. No tiers are attempted.
func invalidReferenceResult(url string) *models.AcquisitionResult {
	return &models.AcquisitionResult{
		SourceIdentifier: url,
		ContentKind:      models.KindUnknown,
		Confidence:       0,
		StrategyUsed:     models.StrategyEmergencyStub,
		Error:            "unrecognized content URL",
		Warning:          "The URL matches no known content reference pattern.",
		Degraded:         true,
	}
}

func kindLabel(kind models.ContentKind) string {
	switch kind {
	case models.KindShorts:
		return "Short-form"
	case models.KindVideo:
		return "Video"
	default:
		return "Unknown"
	}
}
