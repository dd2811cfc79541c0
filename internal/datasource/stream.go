package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridiron-analytics/internal/metrics"
)

// GameFinalEvent announces a game going final on the live score feed.
type GameFinalEvent struct {
	Season     int    `json:"season"`
	Week       int    `json:"week"`
	HomeTeamID string `json:"home_team_id"`
	AwayTeamID string `json:"away_team_id"`
	HomeScore  int    `json:"home_score"`
	AwayScore  int    `json:"away_score"`
}

// GameFinalHandler is called for every game_final event on the stream.
type GameFinalHandler func(event GameFinalEvent) error

// streamMessage is the envelope every feed message arrives in.
type streamMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ReconnectConfig controls reconnection behavior after a dropped feed.
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns default reconnection configuration.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// ScoreStream maintains a WebSocket connection to the live score feed and
// dispatches game_final events to registered handlers.
type ScoreStream struct {
	url             string
	apiKey          string
	conn            *websocket.Conn
	mu              sync.RWMutex
	isConnected     bool
	closed          bool
	handlers        []GameFinalHandler
	reconnectConfig ReconnectConfig
	lastMessageTime time.Time
	logger          *logrus.Logger
}

// NewScoreStream creates a stream client for the given feed URL.
func NewScoreStream(url, apiKey string, logger *logrus.Logger) *ScoreStream {
	return &ScoreStream{
		url:             url,
		apiKey:          apiKey,
		handlers:        make([]GameFinalHandler, 0),
		reconnectConfig: DefaultReconnectConfig(),
		logger:          logger,
	}
}

// OnGameFinal registers a handler for game_final events. Handlers must be
// registered before Connect.
func (s *ScoreStream) OnGameFinal(handler GameFinalHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Connect establishes the feed connection and starts the read loop.
func (s *ScoreStream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("stream closed")
	}
	if s.isConnected {
		return fmt.Errorf("already connected")
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}

	s.conn = conn
	s.isConnected = true
	s.lastMessageTime = time.Now()

	s.logger.WithField("url", s.url).Info("Connected to score stream")

	go s.readMessages(ctx)

	return nil
}

func (s *ScoreStream) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	headers := map[string][]string{}
	if s.apiKey != "" {
		headers["X-API-Key"] = []string{s.apiKey}
	}

	conn, _, err := dialer.DialContext(ctx, s.url, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to score stream: %w", err)
	}
	return conn, nil
}

// readMessages reads feed messages until the connection drops, then attempts
// reconnection with exponential backoff.
func (s *ScoreStream) readMessages(ctx context.Context) {
	for {
		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()
		if conn == nil {
			return
		}

		var msg streamMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			s.mu.Lock()
			s.isConnected = false
			closed := s.closed
			s.mu.Unlock()

			if closed || ctx.Err() != nil {
				return
			}

			s.logger.WithError(err).Warn("Score stream read failed, reconnecting")
			if !s.reconnect(ctx) {
				return
			}
			continue
		}

		s.mu.Lock()
		s.lastMessageTime = time.Now()
		s.mu.Unlock()

		s.dispatch(msg)
	}
}

func (s *ScoreStream) dispatch(msg streamMessage) {
	metrics.StreamEventsTotal.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case "game_final":
		var event GameFinalEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			s.logger.WithError(err).Warn("Malformed game_final payload")
			return
		}

		s.mu.RLock()
		handlers := s.handlers
		s.mu.RUnlock()

		for _, handler := range handlers {
			if err := handler(event); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"season": event.Season,
					"week":   event.Week,
				}).Error("Game final handler failed")
			}
		}
	case "heartbeat":
		// Nothing to do beyond refreshing lastMessageTime.
	default:
		s.logger.WithField("type", msg.Type).Debug("Ignoring unknown stream message")
	}
}

// reconnect retries the connection under the configured backoff. Returns
// false when retries are exhausted or the stream has been closed.
func (s *ScoreStream) reconnect(ctx context.Context) bool {
	backoff := s.reconnectConfig.InitialBackoff

	for attempt := 1; attempt <= s.reconnectConfig.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return false
		}
		s.mu.Unlock()

		conn, err := s.dial(ctx)
		if err == nil {
			s.mu.Lock()
			s.conn = conn
			s.isConnected = true
			s.lastMessageTime = time.Now()
			s.mu.Unlock()

			s.logger.WithField("attempt", attempt).Info("Score stream reconnected")
			return true
		}

		s.logger.WithError(err).WithField("attempt", attempt).Warn("Score stream reconnect failed")

		backoff = time.Duration(float64(backoff) * s.reconnectConfig.BackoffMultiplier)
		if backoff > s.reconnectConfig.MaxBackoff {
			backoff = s.reconnectConfig.MaxBackoff
		}
	}

	s.logger.Error("Score stream reconnect retries exhausted")
	return false
}

// IsConnected reports whether the feed connection is live.
func (s *ScoreStream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}

// LastMessageTime returns the time of the last received feed message.
func (s *ScoreStream) LastMessageTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMessageTime
}

// Close shuts the feed down. Safe to call more than once.
func (s *ScoreStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.isConnected = false

	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
