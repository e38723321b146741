package generation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"pitch-pipeline/internal/models"
	"pitch-pipeline/shared/config"
)

// Limits are the hard caps every repair strategy enforces identically.
// They bound memory and reject adversarial model output before any
// structural work happens.
type Limits struct {
	MaxInputChars int
	MinPitchChars int
	MaxPitchChars int
	MaxTopics     int
}

func LimitsFrom(cfg config.ParserConfig) Limits {
	return Limits{
		MaxInputChars: cfg.MaxInputChars,
		MinPitchChars: cfg.MinPitchChars,
		MaxPitchChars: cfg.MaxPitchChars,
		MaxTopics:     cfg.MaxTopics,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRecord applies the schema and the configured numeric caps. It is
// the single validation gate shared by all three repair strategies.
func validateRecord(record *models.StructuredRecord, limits Limits) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}

	record.GeneratedPitch = strings.TrimSpace(record.GeneratedPitch)
	record.Analysis.Sentiment = strings.TrimSpace(record.Analysis.Sentiment)
	record.Analysis.CoreMessage = strings.TrimSpace(record.Analysis.CoreMessage)
	record.Analysis.TargetAudience = strings.TrimSpace(record.Analysis.TargetAudience)

	// Clamp before validating: an over-long pitch is usable after
	// truncation, an under-length one is not.
	if len(record.GeneratedPitch) > limits.MaxPitchChars {
		record.GeneratedPitch = record.GeneratedPitch[:limits.MaxPitchChars]
	}
	if len(record.Analysis.KeyTopics) > limits.MaxTopics {
		record.Analysis.KeyTopics = record.Analysis.KeyTopics[:limits.MaxTopics]
	}
	topics := record.Analysis.KeyTopics[:0]
	for _, topic := range record.Analysis.KeyTopics {
		if t := strings.TrimSpace(topic); t != "" {
			topics = append(topics, t)
		}
	}
	record.Analysis.KeyTopics = topics

	if len(record.GeneratedPitch) < limits.MinPitchChars {
		return fmt.Errorf("generatedPitch below minimum length (%d < %d)",
			len(record.GeneratedPitch), limits.MinPitchChars)
	}

	if err := validate.Struct(record); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
