package calibration

import (
	"strconv"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/gridiron-analytics/internal/models"
)

// ReportStore holds one calibration report per season. Reports never expire
// on their own; they are replaced by a calibration run or removed by
// explicit invalidation.
type ReportStore struct {
	reports *gocache.Cache
}

// NewReportStore creates an empty report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		reports: gocache.New(gocache.NoExpiration, 0),
	}
}

func seasonKey(season int) string {
	return strconv.Itoa(season)
}

// Get returns the stored report for a season, if any.
func (s *ReportStore) Get(season int) (*models.CalibrationReport, bool) {
	v, ok := s.reports.Get(seasonKey(season))
	if !ok {
		return nil, false
	}
	return v.(*models.CalibrationReport), true
}

// Set replaces the stored report for the report's season.
func (s *ReportStore) Set(report *models.CalibrationReport) {
	s.reports.Set(seasonKey(report.Season), report, gocache.NoExpiration)
}

// Invalidate removes a season's report.
func (s *ReportStore) Invalidate(season int) {
	s.reports.Delete(seasonKey(season))
}

// InvalidateAll removes every stored report.
func (s *ReportStore) InvalidateAll() {
	s.reports.Flush()
}

// Seasons returns the seasons that currently have a report.
func (s *ReportStore) Seasons() []int {
	items := s.reports.Items()
	seasons := make([]int, 0, len(items))
	for key := range items {
		season, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		seasons = append(seasons, season)
	}
	return seasons
}
