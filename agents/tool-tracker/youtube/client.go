package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"podtool/internal/models"
	"podtool/shared/config"
	"podtool/shared/retry"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var ErrVideoNotFound = errors.New("video not found")

// Client looks up video metadata through the YouTube Data API.
type Client struct {
	service *youtube.Service
	policy  retry.Policy
}

// NewClient authenticates with the configured API key, or with an OAuth
// token obtained through the device flow when only a client id and secret
// are set. Extra options are passed to the service, mainly for tests.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig, opts ...option.ClientOption) (*Client, error) {
	if cfg.APIKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{youtube.YoutubeReadonlyScope},
			Endpoint:     google.Endpoint,
		}

		token, err := getToken(oauthConfig, cfg.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to get OAuth token: %w", err)
		}

		tokenSource := &tokenSaver{
			config:    oauthConfig,
			token:     token,
			tokenFile: cfg.TokenFile,
		}
		opts = append([]option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource))}, opts...)
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service, policy: retry.DefaultPolicy()}, nil
}

// SetRetryPolicy replaces the retry policy used for API calls.
func (c *Client) SetRetryPolicy(p retry.Policy) {
	c.policy = p
}

// LookupVideo fetches snippet and content details for one video id.
func (c *Client) LookupVideo(ctx context.Context, videoID string) (*models.Video, error) {
	resp, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*youtube.VideoListResponse, error) {
		return c.service.Videos.List([]string{"snippet", "contentDetails"}).
			Id(videoID).
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get video %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}

	return videoFromItem(resp.Items[0]), nil
}

func videoFromItem(item *youtube.Video) *models.Video {
	video := &models.Video{
		ID:        item.Id,
		URL:       models.WatchURL(item.Id),
		Thumbnail: models.ThumbnailURL(item.Id),
	}

	if s := item.Snippet; s != nil {
		video.Title = s.Title
		video.Description = s.Description
		video.ChannelTitle = s.ChannelTitle
		if publishedAt, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			video.PublishedAt = publishedAt
		}
		if s.Thumbnails != nil {
			for _, thumb := range []*youtube.Thumbnail{s.Thumbnails.Maxres, s.Thumbnails.High} {
				if thumb != nil && thumb.Url != "" {
					video.Thumbnail = thumb.Url
					break
				}
			}
		}
	}

	if item.ContentDetails != nil {
		video.Duration = item.ContentDetails.Duration
		video.DurationSeconds = parseDurationSeconds(item.ContentDetails.Duration)
	}

	return video
}

// tokenSaver persists refreshed tokens so they survive restarts.
type tokenSaver struct {
	config    *oauth2.Config
	token     *oauth2.Token
	tokenFile string
	mu        sync.Mutex
}

func (ts *tokenSaver) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	newToken, err := ts.config.TokenSource(context.Background(), ts.token).Token()
	if err != nil {
		return nil, err
	}

	if newToken.AccessToken != ts.token.AccessToken {
		log.Info().Msg("YouTube token refreshed, saving to file")
		ts.token = newToken
		if err := saveToken(ts.tokenFile, newToken); err != nil {
			log.Warn().Err(err).Msg("Failed to save refreshed token")
		}
	}

	return newToken, nil
}

// getToken loads a cached token, keeping expired ones that can still be
// refreshed, and falls back to the device flow.
func getToken(config *oauth2.Config, tokenFile string) (*oauth2.Token, error) {
	tok, err := tokenFromFile(tokenFile)
	if err == nil {
		if tok.RefreshToken != "" {
			log.Debug().Time("expiry", tok.Expiry).Msg("Loaded YouTube token from file")
			return tok, nil
		}
		if tok.Valid() {
			return tok, nil
		}
	}

	log.Info().Msg("Requesting new YouTube token")
	tok, err = getTokenWithDeviceFlow(config)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			log.Error().
				Str("status", retrieveErr.Response.Status).
				Str("body", strings.TrimSpace(string(retrieveErr.Body))).
				Msg("Device authorization response failed")
		}
		return nil, fmt.Errorf("device authorization failed: %w. Ensure your OAuth client is created as 'TVs and Limited Input devices' and that the YouTube Data API v3 is enabled", err)
	}

	if err := saveToken(tokenFile, tok); err != nil {
		log.Warn().Err(err).Msg("Failed to save token")
	}
	return tok, nil
}

func getTokenWithDeviceFlow(config *oauth2.Config) (*oauth2.Token, error) {
	ctx := context.Background()

	resp, err := config.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("unable to start device authorization: %w", err)
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 80))
	fmt.Printf("YOUTUBE DEVICE AUTHORIZATION REQUIRED\n")
	fmt.Printf("%s\n", strings.Repeat("=", 80))
	fmt.Printf("1. Visit %s in your browser (any device works).\n", resp.VerificationURI)
	fmt.Printf("2. Enter this code when prompted: %s\n\n", resp.UserCode)
	fmt.Printf("Waiting for authorization to complete... (Ctrl+C to cancel)\n")
	fmt.Printf("%s\n", strings.Repeat("-", 80))

	tok, err := config.DeviceAccessToken(ctx, resp, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("device authorization did not complete: %w", err)
	}

	fmt.Printf("\nAuthorization successful.\n\n")
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
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

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode oauth token: %w", err)
	}
	log.Debug().Str("path", path).Msg("Token saved")
	return nil
}

var isoDuration = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// parseDurationSeconds converts an ISO 8601 duration such as PT1H2M3S.
func parseDurationSeconds(duration string) int {
	matches := isoDuration.FindStringSubmatch(duration)
	if len(matches) == 0 {
		return 0
	}

	total := 0
	for i, unit := range []int{3600, 60, 1} {
		if matches[i+1] == "" {
			continue
		}
		if n, err := strconv.Atoi(matches[i+1]); err == nil {
			total += n * unit
		}
	}
	return total
}
