package models

import "time"

// ContentKind classifies the referenced media by URL shape or hint.
type ContentKind string

const (
	KindShorts  ContentKind = "shorts"
	KindVideo   ContentKind = "video"
	KindUnknown ContentKind = "unknown"
)

// Strategy identifies which acquisition tier produced a result.
type Strategy string

const (
	StrategyStandard      Strategy = "standard"
	StrategyEnhanced      Strategy = "enhanced"
	StrategyCacheHit      Strategy = "cache_hit"
	StrategyMetadataOnly  Strategy = "metadata_reconstruction"
	StrategyURLPattern    Strategy = "url_pattern"
	StrategyTemplate      Strategy = "static_template"
	StrategyEmergencyStub Strategy = "emergency_stub"
)

// Reference is the identifier extracted from a content URL.
type Reference struct {
	ID   string      `json:"id"`
	Kind ContentKind `json:"kind"`
	URL  string      `json:"url"`
}

// AcquisitionResult is the outcome of one pipeline run for a reference.
// Exactly one strategy produces it; it is immutable after creation.
type AcquisitionResult struct {
	ID               string      `json:"id"`
	SourceIdentifier string      `json:"source_identifier"`
	ContentKind      ContentKind `json:"content_kind"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	DurationSeconds  int         `json:"duration_seconds,omitempty"`
	ThumbnailRef     string      `json:"thumbnail_ref,omitempty"`
	Transcript       string      `json:"transcript,omitempty"`
	Tags             []string    `json:"tags,omitempty"`
	ViewCount        int64       `json:"view_count,omitempty"`
	LikeCount        int64       `json:"like_count,omitempty"`
	Confidence       float64     `json:"confidence"`
	StrategyUsed     Strategy    `json:"strategy_used"`
	Enrichment       *Enrichment `json:"enrichment,omitempty"`
	Warning          string      `json:"warning,omitempty"`
	Error            string      `json:"error,omitempty"`
	// Degraded marks results whose confidence fell below the soft-error
	// line (0.4) so callers can surface them differently from full
	// successes.
	Degraded bool `json:"degraded,omitempty"`
}

// Enrichment is the optional deep-analysis payload attached when the
// enhanced tier ran and cleared its quality floor.
type Enrichment struct {
	GeneratedTranscript string   `json:"generated_transcript"`
	SceneBreakdown      []string `json:"scene_breakdown"`
	Characters          []string `json:"characters"`
	Dialogues           []string `json:"dialogues"`
	Confidence          float64  `json:"confidence"`
	ContentSummary      string   `json:"content_summary"`
}

// PitchAnalysis is the analysis block of a StructuredRecord.
type PitchAnalysis struct {
	KeyTopics      []string `json:"keyTopics" validate:"required,min=1,max=8,dive,required"`
	Sentiment      string   `json:"sentiment" validate:"required"`
	CoreMessage    string   `json:"coreMessage" validate:"required"`
	TargetAudience string   `json:"targetAudience" validate:"required"`
}

// StructuredRecord is the schema the repair parser must produce from raw
// model text. A record that fails validation is never handed to callers.
type StructuredRecord struct {
	Analysis       PitchAnalysis `json:"analysis" validate:"required"`
	GeneratedPitch string        `json:"generatedPitch" validate:"required"`
	Rationale      string        `json:"rationale,omitempty"`
}

// Outcome classifies a completed processing event.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeCacheHit Outcome = "cache_hit"
	OutcomeError    Outcome = "error"
)

// ProcessingEvent is one append-only entry in the monitor's log.
type ProcessingEvent struct {
	ID         string      `json:"id"`
	Reference  string      `json:"reference"`
	Kind       ContentKind `json:"kind"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at,omitempty"`
	Strategy   Strategy    `json:"strategy,omitempty"`
	Outcome    Outcome     `json:"outcome,omitempty"`
	ErrorKind  string      `json:"error_kind,omitempty"`
}
