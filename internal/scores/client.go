// Package scores fetches finalized game results from the historical scores
// provider. Responses pass through a strict parsing boundary: records are
// validated into ProviderGame before any business logic sees them, and
// malformed records are dropped individually rather than failing the date.
package scores

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	backoffBase = 500 * time.Millisecond
	backoffCap  = 8 * time.Second
)

// ProviderGame is one validated record from the provider.
type ProviderGame struct {
	ProviderID string
	HomeAbbrev string
	AwayAbbrev string
	HomeScore  int
	AwayScore  int
	StartTime  time.Time
	SeasonYear int
	Playoff    bool
	Status     string // scheduled, live, final
}

// rawGame mirrors the provider wire format before validation. Scores are
// pointers because in-progress games omit them.
type rawGame struct {
	ID         string `json:"id"`
	Home       string `json:"home"`
	Away       string `json:"away"`
	HomeScore  *int   `json:"home_score"`
	AwayScore  *int   `json:"away_score"`
	StartTime  string `json:"start_time"` // RFC3339
	SeasonYear int    `json:"season_year"`
	Playoff    bool   `json:"playoff"`
	Status     string `json:"status"`
}

type scoresResponse struct {
	Games []rawGame `json:"games"`
}

// Client talks to the scores provider with per-call timeouts, a shared rate
// limiter and bounded retry.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewClient creates a provider client. rps caps requests per second across
// all concurrent ingestion workers.
func NewClient(baseURL, apiKey string, timeout time.Duration, maxRetries int, rps float64) *Client {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: maxRetries,
	}
}

// FetchFinalGames returns the finalized games for a sport/date. Non-final
// records are passed through (the ingestor upserts them as scheduled/live)
// but only final records carry scores.
func (c *Client) FetchFinalGames(ctx context.Context, sport string, date time.Time) ([]ProviderGame, error) {
	url := fmt.Sprintf("%s/v1/%s/scores?date=%s", c.baseURL, sport, date.Format("2006-01-02"))

	body, err := c.getWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp scoresResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode scores response: %w", err)
	}

	games := make([]ProviderGame, 0, len(resp.Games))
	for _, raw := range resp.Games {
		game, err := validate(raw)
		if err != nil {
			log.Warn().Err(err).Str("sport", sport).Str("id", raw.ID).Msg("Dropping malformed record")
			continue
		}
		games = append(games, game)
	}
	return games, nil
}

// validate is the parsing boundary: reject anything that would poison
// downstream identity or sample storage.
func validate(raw rawGame) (ProviderGame, error) {
	if raw.ID == "" {
		return ProviderGame{}, fmt.Errorf("missing provider id")
	}
	if raw.Home == "" || raw.Away == "" {
		return ProviderGame{}, fmt.Errorf("missing team abbreviation")
	}
	startTime, err := time.Parse(time.RFC3339, raw.StartTime)
	if err != nil {
		return ProviderGame{}, fmt.Errorf("bad start_time %q: %w", raw.StartTime, err)
	}

	game := ProviderGame{
		ProviderID: raw.ID,
		HomeAbbrev: raw.Home,
		AwayAbbrev: raw.Away,
		StartTime:  startTime,
		SeasonYear: raw.SeasonYear,
		Playoff:    raw.Playoff,
		Status:     raw.Status,
	}
	if game.SeasonYear == 0 {
		game.SeasonYear = startTime.Year()
	}

	if raw.Status == "final" {
		if raw.HomeScore == nil || raw.AwayScore == nil {
			return ProviderGame{}, fmt.Errorf("final game without scores")
		}
		if *raw.HomeScore < 0 || *raw.AwayScore < 0 {
			return ProviderGame{}, fmt.Errorf("negative score")
		}
		game.HomeScore = *raw.HomeScore
		game.AwayScore = *raw.AwayScore
	}
	return game, nil
}

// getWithRetry performs a GET with exponential backoff. 429 and 5xx are
// retryable, other 4xx are not.
func (c *Client) getWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffBase << (attempt - 1)
			if delay > backoffCap {
				delay = backoffCap
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retryable, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		log.Debug().Err(err).Int("attempt", attempt+1).Str("url", url).Msg("Scores fetch failed, will retry")
	}
	return nil, fmt.Errorf("scores fetch exhausted %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) get(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err // network errors are retryable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var buf []byte
		buf, err = io.ReadAll(resp.Body)
		return buf, false, err
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("provider returned %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("provider returned %d", resp.StatusCode)
	}
}
