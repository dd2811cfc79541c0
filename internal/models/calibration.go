package models

import (
	"time"

	"github.com/google/uuid"
)

// BinCount is the fixed number of confidence bins.
const BinCount = 5

// BinRange describes one half-open confidence range. The top bin is closed
// at 100 so a maximal confidence value still lands in a bin.
type BinRange struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// BinRanges is the fixed partition of the confidence axis. Bin membership is
// always determined by the raw, pre-calibration confidence value.
var BinRanges = [BinCount]BinRange{
	{Label: "Very Low", Min: 0, Max: 20},
	{Label: "Low", Min: 20, Max: 40},
	{Label: "Medium", Min: 40, Max: 60},
	{Label: "High", Min: 60, Max: 80},
	{Label: "Very High", Min: 80, Max: 100},
}

// Midpoint returns the expected accuracy for the range.
func (r BinRange) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

// BinIndex maps a raw confidence value to its bin index. Values outside
// [0,100] are clamped into the boundary bins.
func BinIndex(confidence float64) int {
	if confidence < 0 {
		return 0
	}
	for i := 0; i < BinCount-1; i++ {
		if confidence < BinRanges[i].Max {
			return i
		}
	}
	return BinCount - 1
}

// ConfidenceBin aggregates resolved predictions whose raw confidence fell
// into one range for a season.
type ConfidenceBin struct {
	Range            BinRange `json:"range"`
	PredictedCount   int      `json:"predicted_count"`
	CorrectCount     int      `json:"correct_count"`
	ActualAccuracy   float64  `json:"actual_accuracy"`
	ExpectedAccuracy float64  `json:"expected_accuracy"`
	CalibrationError float64  `json:"calibration_error"`
	Reliability      float64  `json:"reliability"`
}

// RecommendationType identifies a calibration recommendation rule.
type RecommendationType string

// Recommendation rule identifiers.
const (
	RecommendationOverconfidence  RecommendationType = "overconfidence"
	RecommendationUnderconfidence RecommendationType = "underconfidence"
	RecommendationLowSharpness    RecommendationType = "low_sharpness"
	RecommendationLowReliability  RecommendationType = "low_reliability"
)

// Severity levels for recommendations.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// Recommendation is an actionable finding from a calibration run.
type Recommendation struct {
	Type     RecommendationType `json:"type"`
	Severity string             `json:"severity"`
	Message  string             `json:"message"`
	Bin      string             `json:"bin,omitempty"`
}

// CalibrationReport is the per-season aggregate produced by a calibration
// run. Reports are built fresh on each run, cached per season, and
// invalidated explicitly rather than expiring mid-season.
type CalibrationReport struct {
	ID                 uuid.UUID               `json:"id"`
	Season             int                     `json:"season"`
	Bins               [BinCount]ConfidenceBin `json:"bins"`
	OverallCalibration float64                 `json:"overall_calibration"`
	Reliability        float64                 `json:"reliability"`
	Sharpness          float64                 `json:"sharpness"`
	Recommendations    []Recommendation        `json:"recommendations"`
	GeneratedAt        time.Time               `json:"generated_at"`
}

// TotalPredictions returns the number of resolved predictions across bins.
func (r *CalibrationReport) TotalPredictions() int {
	total := 0
	for _, b := range r.Bins {
		total += b.PredictedCount
	}
	return total
}

// ResolvedPrediction pairs a historical prediction with the game's actual
// winner, as supplied by the game-result source.
type ResolvedPrediction struct {
	Prediction   *Prediction `json:"prediction" validate:"required"`
	ActualWinner string      `json:"actual_winner" validate:"required"`
	Week         int         `json:"week" validate:"gte=1"`
}

// Correct reports whether the predicted winner matched the actual winner.
func (rp *ResolvedPrediction) Correct() bool {
	return rp.Prediction != nil && rp.Prediction.PredictedWinner == rp.ActualWinner
}
