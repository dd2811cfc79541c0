// Package prediction converts team strength ratings into win probabilities,
// confidence values and heuristic score predictions.
package prediction

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridiron-analytics/internal/config"
	"github.com/yourusername/gridiron-analytics/internal/metrics"
	"github.com/yourusername/gridiron-analytics/internal/models"
)

// Score heuristic constants. A baseline of 24 points per team shifted by the
// win-probability edge, floored so neither side predicts a near-zero score.
const (
	baselineScore = 24.0
	scoreSwing    = 14.0
	minScore      = 3
)

// Params holds the engine tunables. The steepness and normalization width of
// the confidence curve are engine parameters, not physical constants; the
// defaults mirror a 400-point-scale logistic rating system with one nominal
// home-field edge worth 25 points.
type Params struct {
	HomeFieldAdvantage      float64
	ConfidenceSteepness     float64
	ConfidenceNormalization float64
}

// DefaultParams returns the standard engine parameters.
func DefaultParams() Params {
	return Params{
		HomeFieldAdvantage:      25.0,
		ConfidenceSteepness:     6.0,
		ConfidenceNormalization: 200.0,
	}
}

// ParamsFromConfig builds engine parameters from configuration.
func ParamsFromConfig(cfg *config.PredictionConfig) Params {
	return Params{
		HomeFieldAdvantage:      cfg.HomeFieldAdvantage,
		ConfidenceSteepness:     cfg.ConfidenceSteepness,
		ConfidenceNormalization: cfg.ConfidenceNormalization,
	}
}

// RatingLookup resolves a team ID to its rating. Implementations must
// tolerate unknown teams by returning false rather than failing.
type RatingLookup interface {
	Lookup(teamID string) (*models.TeamRating, bool)
}

// Engine is the pure prediction calculator. It performs no fetching and has
// no side effects; callers supply previously fetched ratings.
type Engine struct {
	params Params
	logger *logrus.Logger
}

// NewEngine creates a new prediction engine.
func NewEngine(params Params, logger *logrus.Logger) *Engine {
	return &Engine{
		params: params,
		logger: logger,
	}
}

// Predict produces a win-probability distribution, confidence value and
// heuristic score for a single game. It fails with a MissingRatingError when
// either rating is absent.
func (e *Engine) Predict(matchup models.Matchup, home, away *models.TeamRating) (*models.Prediction, error) {
	if home == nil {
		return nil, &models.MissingRatingError{TeamID: matchup.HomeTeamID}
	}
	if away == nil {
		return nil, &models.MissingRatingError{TeamID: matchup.AwayTeamID}
	}

	adjustedHome := home.Rating + e.params.HomeFieldAdvantage

	// Standard logistic pairing function; the two shares sum to exactly 1
	// by construction, no renormalization needed.
	homeShare := 1 / (1 + math.Pow(10, (away.Rating-adjustedHome)/400))
	awayShare := 1 - homeShare

	confidence := e.confidence(adjustedHome, away.Rating)

	winner := matchup.HomeTeamID
	if awayShare > homeShare {
		winner = matchup.AwayTeamID
	}

	expectedHome := baselineScore + (homeShare-0.5)*scoreSwing
	expectedAway := baselineScore + (awayShare-0.5)*scoreSwing

	homeProbability := math.Round(homeShare * 100)

	return &models.Prediction{
		HomeTeamID:         matchup.HomeTeamID,
		AwayTeamID:         matchup.AwayTeamID,
		HomeWinProbability: homeProbability,
		AwayWinProbability: 100 - homeProbability,
		PredictedWinner:    winner,
		Confidence:         math.Round(confidence * 100),
		PredictedScore: models.PredictedScore{
			Home: roundScore(expectedHome),
			Away: roundScore(expectedAway),
		},
		ExpectedHomeScore:  expectedHome,
		ExpectedAwayScore:  expectedAway,
		RatingDifference:   adjustedHome - away.Rating,
		HomeFieldAdvantage: e.params.HomeFieldAdvantage,
	}, nil
}

// confidence maps the absolute rating gap onto [0,1] via a sigmoid: near-equal
// ratings give low confidence, gaps at or beyond the normalization width
// saturate toward 1.
func (e *Engine) confidence(adjustedHome, awayRating float64) float64 {
	d := math.Abs(adjustedHome - awayRating)
	x := math.Min(d/e.params.ConfidenceNormalization, 1)
	return 1 / (1 + math.Exp(-e.params.ConfidenceSteepness*(x-0.5)))
}

// PredictBatch predicts every matchup that has both ratings available. Games
// with a missing rating are skipped with a warning and never abort the batch.
func (e *Engine) PredictBatch(season, week int, matchups []models.Matchup, ratings RatingLookup) []*models.Prediction {
	predictions := make([]*models.Prediction, 0, len(matchups))

	for _, m := range matchups {
		home, _ := ratings.Lookup(m.HomeTeamID)
		away, _ := ratings.Lookup(m.AwayTeamID)

		pred, err := e.Predict(m, home, away)
		if err != nil {
			metrics.PredictionsSkippedTotal.Inc()
			e.logger.WithFields(logrus.Fields{
				"season":       season,
				"week":         week,
				"home_team_id": m.HomeTeamID,
				"away_team_id": m.AwayTeamID,
			}).WithError(err).Warn("Skipping game with missing rating")
			continue
		}
		predictions = append(predictions, pred)
	}

	return predictions
}

func roundScore(score float64) int {
	rounded := int(math.Round(score))
	if rounded < minScore {
		return minScore
	}
	return rounded
}
