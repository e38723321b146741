package acquisition

import (
	"regexp"

	"pitch-pipeline/internal/models"
)

// Known URL shapes, tried in order. The first submatch is always the video
// id (11 chars from the YouTube id alphabet).
var referencePatterns = []struct {
	re   *regexp.Regexp
	kind models.ContentKind
}{
	{regexp.MustCompile(`(?:^|\.)youtube\.com/shorts/([A-Za-z0-9_-]{11})`), models.KindShorts},
	{regexp.MustCompile(`(?:^|\.)youtube\.com/watch\?(?:[^#]*&)?v=([A-Za-z0-9_-]{11})`), models.KindVideo},
	{regexp.MustCompile(`(?:^|/)youtu\.be/([A-Za-z0-9_-]{11})`), models.KindVideo},
	{regexp.MustCompile(`(?:^|\.)youtube\.com/embed/([A-Za-z0-9_-]{11})`), models.KindVideo},
	{regexp.MustCompile(`(?:^|\.)youtube\.com/live/([A-Za-z0-9_-]{11})`), models.KindVideo},
}

// ExtractReference derives the content reference from a URL. It is
// deterministic and idempotent: the same URL always yields the same
// reference. A hint of "shorts" overrides the kind inferred from the URL
// shape, since shorts are routinely shared through watch URLs.
func ExtractReference(url string, hint models.ContentKind) (models.Reference, bool) {
	for _, pattern := range referencePatterns {
		if m := pattern.re.FindStringSubmatch(url); m != nil {
			kind := pattern.kind
			if hint == models.KindShorts {
				kind = models.KindShorts
			}
			return models.Reference{ID: m[1], Kind: kind, URL: url}, true
		}
	}
	return models.Reference{Kind: models.KindUnknown, URL: url}, false
}

// CacheKey builds the cache key for a reference. Kind is part of the key so
// a shorts-hinted request never sees a result acquired under video limits.
func CacheKey(ref models.Reference) string {
	return ref.ID + "|" + string(ref.Kind)
}
