package acquisition

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"pitch-pipeline/internal/models"
	"pitch-pipeline/shared/config"
)

// MetadataClient is the contract the primary tier needs from the metadata
// API. *YouTubeClient is the production implementation; tests substitute
// fakes.
type MetadataClient interface {
	FetchMetadata(ctx context.Context, videoID string) (*models.AcquisitionResult, error)
}

// YouTubeClient fetches video metadata through the YouTube Data API.
// API-key auth is the default; when no key is configured it falls back to
// an OAuth token file (refreshed and re-saved automatically).
type YouTubeClient struct {
	service *youtube.Service
}

func NewYouTubeClient(cfg *config.YouTubeConfig) (*YouTubeClient, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{"https://www.googleapis.com/auth/youtube.readonly"},
			Endpoint:     google.Endpoint,
		}
		token, err := tokenFromFile(cfg.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("no API key and no usable OAuth token in %s: %w", cfg.TokenFile, err)
		}
		saver := &tokenSaver{config: oauthConfig, token: token, tokenFile: cfg.TokenFile}
		opts = append(opts, option.WithHTTPClient(oauth2.NewClient(ctx, saver)))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &YouTubeClient{service: service}, nil
}

// FetchMetadata retrieves snippet, duration and statistics for one video.
// Errors carry their taxonomy kind so the retry executor can classify them.
func (c *YouTubeClient) FetchMetadata(ctx context.Context, videoID string) (*models.AcquisitionResult, error) {
	call := c.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(videoID).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("metadata fetch for %s failed: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return nil, models.Errorf(models.ErrInvalidReference, "video %s not found", videoID)
	}

	item := resp.Items[0]
	result := &models.AcquisitionResult{
		ID:               videoID,
		SourceIdentifier: videoID,
		Title:            item.Snippet.Title,
		Description:      item.Snippet.Description,
		Tags:             item.Snippet.Tags,
	}

	if item.ContentDetails != nil {
		result.DurationSeconds = parseDurationSeconds(item.ContentDetails.Duration)
	}
	if item.Snippet.Thumbnails != nil {
		if t := item.Snippet.Thumbnails.High; t != nil {
			result.ThumbnailRef = t.Url
		} else if t := item.Snippet.Thumbnails.Default; t != nil {
			result.ThumbnailRef = t.Url
		}
	}
	if item.Statistics != nil {
		result.ViewCount = int64(item.Statistics.ViewCount)
		result.LikeCount = int64(item.Statistics.LikeCount)
	}

	return result, nil
}

// tokenSaver wraps an oauth2.TokenSource to automatically save refreshed
// tokens, so refreshed tokens survive restarts.
type tokenSaver struct {
	config    *oauth2.Config
	token     *oauth2.Token
	tokenFile string
	mu        sync.Mutex // Protects concurrent token refresh operations
}

func (ts *tokenSaver) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	source := ts.config.TokenSource(context.Background(), ts.token)
	newToken, err := source.Token()
	if err != nil {
		return nil, err
	}

	if newToken.AccessToken != ts.token.AccessToken {
		log.Println("OAuth token refreshed, saving to file")
		ts.token = newToken
		if err := saveToken(ts.tokenFile, newToken); err != nil {
			log.Printf("Warning: Failed to save refreshed token: %v", err)
		}
	}

	return newToken, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, fmt.Errorf("token expired and has no refresh token")
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("unable to create token directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}

var durationPattern = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// parseDurationSeconds converts an ISO 8601 duration ("PT1M30S") to seconds.
func parseDurationSeconds(duration string) int {
	if duration == "" {
		return 0
	}

	matches := durationPattern.FindStringSubmatch(duration)
	if len(matches) == 0 {
		return 0
	}

	var total int
	if matches[1] != "" {
		if hours, err := strconv.Atoi(matches[1]); err == nil {
			total += hours * 3600
		}
	}
	if matches[2] != "" {
		if minutes, err := strconv.Atoi(matches[2]); err == nil {
			total += minutes * 60
		}
	}
	if matches[3] != "" {
		if seconds, err := strconv.Atoi(matches[3]); err == nil {
			total += seconds
		}
	}
	return total
}
