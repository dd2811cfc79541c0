package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridiron-analytics/internal/models"
)

// ratingsResponse is the wire shape of the ratings endpoint.
type ratingsResponse struct {
	Season int                 `json:"season"`
	Teams  []models.TeamRating `json:"teams"`
}

// HTTPRatingSource fetches team ratings from the ratings REST endpoint.
type HTTPRatingSource struct {
	http    *RateLimitedHTTPClient
	baseURL string
	apiKey  string
	logger  *logrus.Logger
}

// NewHTTPRatingSource creates a new HTTP-backed rating source.
func NewHTTPRatingSource(client *RateLimitedHTTPClient, baseURL, apiKey string, logger *logrus.Logger) *HTTPRatingSource {
	return &HTTPRatingSource{
		http:    client,
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
	}
}

// Ping checks that the ratings endpoint is reachable. Used by readiness
// checks; any response short of a server error counts as reachable.
func (s *HTTPRatingSource) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.baseURL, nil)
	if err != nil {
		return err
	}
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("ratings endpoint unreachable: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("ratings endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// GetRatings fetches the full rating set for a season under the given
// configuration. Teams absent from the response are simply absent from the
// set; lookups tolerate that.
func (s *HTTPRatingSource) GetRatings(ctx context.Context, season int, cfg RatingConfig) (*RatingSet, error) {
	query := url.Values{}
	query.Set("season", strconv.Itoa(season))
	query.Set("variant", cfg.Key())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ratings request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ratings request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var payload ratingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode ratings response: %w", err)
	}

	set := &RatingSet{
		Season: season,
		Config: cfg,
		Teams:  make(map[string]models.TeamRating, len(payload.Teams)),
	}
	for _, team := range payload.Teams {
		set.Teams[team.TeamID] = team
	}

	s.logger.WithFields(logrus.Fields{
		"season":  season,
		"variant": cfg.Key(),
		"teams":   len(set.Teams),
	}).Debug("Fetched rating set")

	return set, nil
}
