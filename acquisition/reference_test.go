package acquisition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitch-pipeline/internal/models"
)

func TestExtractReference(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		hint     models.ContentKind
		wantID   string
		wantKind models.ContentKind
		wantOK   bool
	}{
		{
			name:     "shorts URL",
			url:      "https://www.youtube.com/shorts/dQw4w9WgXcQ",
			wantID:   "dQw4w9WgXcQ",
			wantKind: models.KindShorts,
			wantOK:   true,
		},
		{
			name:     "watch URL",
			url:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantID:   "dQw4w9WgXcQ",
			wantKind: models.KindVideo,
			wantOK:   true,
		},
		{
			name:     "watch URL with extra params",
			url:      "https://www.youtube.com/watch?list=PL123&v=aBcDeFgHiJk&t=42s",
			wantID:   "aBcDeFgHiJk",
			wantKind: models.KindVideo,
			wantOK:   true,
		},
		{
			name:     "short link",
			url:      "https://youtu.be/dQw4w9WgXcQ",
			wantID:   "dQw4w9WgXcQ",
			wantKind: models.KindVideo,
			wantOK:   true,
		},
		{
			name:     "embed URL",
			url:      "https://www.youtube.com/embed/dQw4w9WgXcQ",
			wantID:   "dQw4w9WgXcQ",
			wantKind: models.KindVideo,
			wantOK:   true,
		},
		{
			name:     "live URL",
			url:      "https://www.youtube.com/live/dQw4w9WgXcQ",
			wantID:   "dQw4w9WgXcQ",
			wantKind: models.KindVideo,
			wantOK:   true,
		},
		{
			name:     "shorts hint overrides watch shape",
			url:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			hint:     models.KindShorts,
			wantID:   "dQw4w9WgXcQ",
			wantKind: models.KindShorts,
			wantOK:   true,
		},
		{
			name:     "not a URL",
			url:      "not-a-url",
			wantKind: models.KindUnknown,
			wantOK:   false,
		},
		{
			name:     "unrelated site",
			url:      "https://vimeo.com/123456789",
			wantKind: models.KindUnknown,
			wantOK:   false,
		},
		{
			name:     "id too short",
			url:      "https://www.youtube.com/watch?v=short",
			wantKind: models.KindUnknown,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := ExtractReference(tt.url, tt.hint)
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, ref.ID)
			assert.Equal(t, tt.wantKind, ref.Kind)
		})
	}
}

func TestExtractReferenceDeterministicIdempotent(t *testing.T) {
	url := "https://www.youtube.com/shorts/dQw4w9WgXcQ"

	first, ok := ExtractReference(url, models.KindUnknown)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := ExtractReference(url, models.KindUnknown)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestCacheKeyIncludesKind(t *testing.T) {
	short, _ := ExtractReference("https://www.youtube.com/shorts/dQw4w9WgXcQ", models.KindUnknown)
	video, _ := ExtractReference("https://www.youtube.com/watch?v=dQw4w9WgXcQ", models.KindUnknown)

	assert.NotEqual(t, CacheKey(short), CacheKey(video))
}

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		duration string
		want     int
	}{
		{"PT45S", 45},
		{"PT1M30S", 90},
		{"PT2H15M30S", 8130},
		{"PT1H", 3600},
		{"", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		t.Run(tt.duration, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDurationSeconds(tt.duration))
		})
	}
}
