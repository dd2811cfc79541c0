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

// resolvedResponse is the wire shape of the results endpoint.
type resolvedResponse struct {
	Season      int                         `json:"season"`
	Week        int                         `json:"week"`
	Predictions []models.ResolvedPrediction `json:"predictions"`
}

// HTTPResultSource fetches resolved historical predictions from the results
// REST endpoint.
type HTTPResultSource struct {
	http    *RateLimitedHTTPClient
	baseURL string
	apiKey  string
	logger  *logrus.Logger
}

// NewHTTPResultSource creates a new HTTP-backed game-result source.
func NewHTTPResultSource(client *RateLimitedHTTPClient, baseURL, apiKey string, logger *logrus.Logger) *HTTPResultSource {
	return &HTTPResultSource{
		http:    client,
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
	}
}

// Ping checks that the results endpoint is reachable. Used by readiness
// checks; any response short of a server error counts as reachable.
func (s *HTTPResultSource) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.baseURL, nil)
	if err != nil {
		return err
	}
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("results endpoint unreachable: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("results endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// GetResolvedPredictions fetches a week's predictions already resolved
// against actual outcomes. A week with no games returns an empty slice.
func (s *HTTPResultSource) GetResolvedPredictions(ctx context.Context, season, week int) ([]models.ResolvedPrediction, error) {
	query := url.Values{}
	query.Set("season", strconv.Itoa(season))
	query.Set("week", strconv.Itoa(week))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("results request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("results request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var payload resolvedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode results response: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"season":      season,
		"week":        week,
		"predictions": len(payload.Predictions),
	}).Debug("Fetched resolved predictions")

	return payload.Predictions, nil
}
