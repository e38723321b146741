package generation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"

	"pitch-pipeline/internal/models"
	"pitch-pipeline/shared/monitoring"
)

// RepairAttempt records one strategy's failure for the caller's log.
type RepairAttempt struct {
	Strategy string `json:"strategy"`
	Err      string `json:"error"`
}

// RepairFailure is the structured result of total repair failure. It is an
// error value, not a panic: the caller falls back to a locally synthesized
// record deterministically.
type RepairFailure struct {
	Attempts []RepairAttempt `json:"attempts"`
}

func (f *RepairFailure) Error() string {
	parts := make([]string, 0, len(f.Attempts))
	for _, a := range f.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Strategy, a.Err))
	}
	return "all repair strategies failed: " + strings.Join(parts, "; ")
}

// Repairer coerces raw model text into a schema-valid StructuredRecord.
type Repairer struct {
	limits Limits
}

func NewRepairer(limits Limits) *Repairer {
	return &Repairer{limits: limits}
}

// Repair applies the strategies in order (direct decode, then cleanup
// decode, then field extraction) and returns the first schema-valid record.
// Input gating runs before any strategy: this is a security boundary against
// oversize or binary-laden model output, not a parsing nicety.
func (r *Repairer) Repair(raw string) (*models.StructuredRecord, *RepairFailure) {
	if err := r.gateInput(raw); err != nil {
		monitoring.RepairOutcomes.WithLabelValues("rejected").Inc()
		return nil, &RepairFailure{Attempts: []RepairAttempt{
			{Strategy: "input_validation", Err: err.Error()},
		}}
	}

	var attempts []RepairAttempt

	if record, err := r.directDecode(raw); err == nil {
		monitoring.RepairOutcomes.WithLabelValues("direct").Inc()
		return record, nil
	} else {
		attempts = append(attempts, RepairAttempt{Strategy: "direct", Err: err.Error()})
	}

	if record, err := r.cleanupDecode(raw); err == nil {
		monitoring.RepairOutcomes.WithLabelValues("cleanup").Inc()
		return record, nil
	} else {
		attempts = append(attempts, RepairAttempt{Strategy: "cleanup", Err: err.Error()})
	}

	if record, err := r.extractFields(raw); err == nil {
		monitoring.RepairOutcomes.WithLabelValues("extraction").Inc()
		return record, nil
	} else {
		attempts = append(attempts, RepairAttempt{Strategy: "extraction", Err: err.Error()})
	}

	monitoring.RepairOutcomes.WithLabelValues("failure").Inc()
	return nil, &RepairFailure{Attempts: attempts}
}

// gateInput rejects input no strategy should ever see.
func (r *Repairer) gateInput(raw string) error {
	if raw == "" {
		return fmt.Errorf("empty input")
	}
	if len(raw) > r.limits.MaxInputChars {
		return fmt.Errorf("input length %d exceeds limit %d", len(raw), r.limits.MaxInputChars)
	}

	control := 0
	for _, c := range raw {
		if c < 0x20 && c != '\n' && c != '\r' && c != '\t' {
			control++
		}
	}
	// A handful of stray control characters is model noise the cleanup
	// strategy handles; a density of them means binary garbage.
	if control > 0 && control*50 > len(raw) {
		return fmt.Errorf("input contains %d control characters", control)
	}
	return nil
}

// directDecode parses the text exactly as received.
func (r *Repairer) directDecode(raw string) (*models.StructuredRecord, error) {
	var record models.StructuredRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("direct decode: %w", err)
	}
	if err := validateRecord(&record, r.limits); err != nil {
		return nil, err
	}
	return &record, nil
}

// cleanupDecode repairs the common ways models mangle JSON: code fences,
// prose around the object, literal control characters inside string bodies,
// trailing commas, and truncated closing braces.
func (r *Repairer) cleanupDecode(raw string) (*models.StructuredRecord, error) {
	cleaned := stripCodeFences(raw)

	start := strings.Index(cleaned, "{")
	if start == -1 {
		return nil, fmt.Errorf("cleanup decode: no JSON object found")
	}
	end := strings.LastIndex(cleaned, "}")
	if end > start {
		cleaned = cleaned[start : end+1]
	} else {
		cleaned = cleaned[start:]
	}

	cleaned = escapeControlCharsInStrings(cleaned)
	cleaned = trailingCommaPattern.ReplaceAllString(cleaned, "$1")
	cleaned = balanceBraces(cleaned, 4)

	var record models.StructuredRecord
	if err := json.Unmarshal([]byte(cleaned), &record); err != nil {
		return nil, fmt.Errorf("cleanup decode: %w", err)
	}
	if err := validateRecord(&record, r.limits); err != nil {
		return nil, err
	}
	return &record, nil
}

// extractFields gives up on structure and pulls each schema field out
// independently, first via gjson paths over the best-effort object, then
// via anchored regexes over the raw text. The assembled record passes the
// same validation gate as the structural strategies; partial extraction
// that cannot meet the minimum pitch length is a total failure.
func (r *Repairer) extractFields(raw string) (*models.StructuredRecord, error) {
	body := stripCodeFences(raw)

	record := &models.StructuredRecord{}

	if parsed := gjson.Parse(body); parsed.IsObject() {
		record.GeneratedPitch = parsed.Get("generatedPitch").String()
		record.Rationale = parsed.Get("rationale").String()
		record.Analysis.Sentiment = parsed.Get("analysis.sentiment").String()
		record.Analysis.CoreMessage = parsed.Get("analysis.coreMessage").String()
		record.Analysis.TargetAudience = parsed.Get("analysis.targetAudience").String()
		for _, topic := range parsed.Get("analysis.keyTopics").Array() {
			record.Analysis.KeyTopics = append(record.Analysis.KeyTopics, topic.String())
		}
	}

	if record.GeneratedPitch == "" {
		record.GeneratedPitch = extractStringField(body, "generatedPitch")
	}
	if record.Rationale == "" {
		record.Rationale = extractStringField(body, "rationale")
	}
	if record.Analysis.Sentiment == "" {
		record.Analysis.Sentiment = extractStringField(body, "sentiment")
	}
	if record.Analysis.CoreMessage == "" {
		record.Analysis.CoreMessage = extractStringField(body, "coreMessage")
	}
	if record.Analysis.TargetAudience == "" {
		record.Analysis.TargetAudience = extractStringField(body, "targetAudience")
	}
	if len(record.Analysis.KeyTopics) == 0 {
		record.Analysis.KeyTopics = extractStringArray(body, "keyTopics")
	}

	// Missing soft fields get neutral defaults; the pitch itself is
	// never defaulted, it either extracted or the strategy fails.
	if record.Analysis.Sentiment == "" {
		record.Analysis.Sentiment = "neutral"
	}
	if record.Analysis.CoreMessage == "" && record.GeneratedPitch != "" {
		record.Analysis.CoreMessage = truncate(record.GeneratedPitch, 160)
	}
	if record.Analysis.TargetAudience == "" {
		record.Analysis.TargetAudience = "general audience"
	}
	if len(record.Analysis.KeyTopics) == 0 && record.Analysis.CoreMessage != "" {
		record.Analysis.KeyTopics = []string{truncate(record.Analysis.CoreMessage, 60)}
	}

	if err := validateRecord(record, r.limits); err != nil {
		return nil, fmt.Errorf("field extraction: %w", err)
	}
	return record, nil
}

var (
	codeFencePattern     = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

func stripCodeFences(s string) string {
	if m := codeFencePattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return strings.TrimSpace(s)
}

// escapeControlCharsInStrings walks the text tracking JSON string state and
// escapes literal newlines, tabs and carriage returns found inside string
// bodies, where models routinely emit them unescaped.
func escapeControlCharsInStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString := false
	escaped := false
	for _, c := range s {
		if escaped {
			b.WriteRune(c)
			escaped = false
			continue
		}
		switch {
		case inString && c == '\\':
			b.WriteRune(c)
			escaped = true
		case c == '"':
			inString = !inString
			b.WriteRune(c)
		case inString && c == '\n':
			b.WriteString(`\n`)
		case inString && c == '\r':
			b.WriteString(`\r`)
		case inString && c == '\t':
			b.WriteString(`\t`)
		case inString && unicode.IsControl(c):
			// Drop other control characters rather than guessing an escape.
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// balanceBraces appends up to maxFixes missing closing braces/brackets for
// truncated output. Anything more broken than that is not worth guessing.
func balanceBraces(s string, maxFixes int) string {
	depth := 0
	bracketDepth := 0
	inString := false
	escaped := false
	for _, c := range s {
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
			}
		case '[':
			if !inString {
				bracketDepth++
			}
		case ']':
			if !inString {
				bracketDepth--
			}
		}
	}

	if depth+bracketDepth > maxFixes || depth < 0 || bracketDepth < 0 {
		return s
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	for i := 0; i < bracketDepth; i++ {
		b.WriteByte(']')
	}
	for i := 0; i < depth; i++ {
		b.WriteByte('}')
	}
	return b.String()
}

// extractStringField pulls `"name": "value"` out of free text, tolerating
// escaped quotes inside the value.
func extractStringField(s, name string) string {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(name) + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return unescapeJSONString(m[1])
}

// extractStringArray pulls `"name": ["a", "b"]` out of free text.
func extractStringArray(s, name string) []string {
	re := regexp.MustCompile(`(?s)"` + regexp.QuoteMeta(name) + `"\s*:\s*\[(.*?)\]`)
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}

	itemRe := regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
	var out []string
	for _, item := range itemRe.FindAllStringSubmatch(m[1], -1) {
		if v := unescapeJSONString(item[1]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func unescapeJSONString(s string) string {
	var decoded string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &decoded); err != nil {
		// Fall back to the raw capture with the common escapes undone.
		replacer := strings.NewReplacer(`\"`, `"`, `\\`, `\`, `\n`, "\n", `\t`, "\t")
		return replacer.Replace(s)
	}
	return decoded
}
