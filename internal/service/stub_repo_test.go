package service

import (
	"context"
	"time"

	"plantmonitor/internal/models"
	"plantmonitor/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Dashboard tests only exercise the read paths.
type stubRepo struct {
	facilities map[string]*models.Facility
	withCounts []repository.FacilityWithCount
	assets     map[string][]models.Asset
	latest     map[string][]repository.LatestReading
	ranges     map[string][]models.OperationalRange
	insights   map[string][]models.Insight
	kpis       map[string]*repository.MetricKPI
	timeseries []repository.TimeseriesRow
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		facilities: make(map[string]*models.Facility),
		assets:     make(map[string][]models.Asset),
		latest:     make(map[string][]repository.LatestReading),
		ranges:     make(map[string][]models.OperationalRange),
		insights:   make(map[string][]models.Insight),
		kpis:       make(map[string]*repository.MetricKPI),
	}
}

func (s *stubRepo) CountFacilities(ctx context.Context) (int64, error) {
	return int64(len(s.facilities)), nil
}
func (s *stubRepo) ListFacilityIDs(ctx context.Context) ([]string, error) { return nil, nil }
func (s *stubRepo) ListFacilitiesWithCounts(ctx context.Context) ([]repository.FacilityWithCount, error) {
	return s.withCounts, nil
}
func (s *stubRepo) GetFacilityByID(ctx context.Context, id string) (*models.Facility, error) {
	return s.facilities[id], nil
}
func (s *stubRepo) InsertFacility(ctx context.Context, item *models.Facility) error { return nil }
func (s *stubRepo) ListAssets(ctx context.Context) ([]models.Asset, error)          { return nil, nil }
func (s *stubRepo) ListAssetsByFacility(ctx context.Context, facilityID string) ([]models.Asset, error) {
	return s.assets[facilityID], nil
}
func (s *stubRepo) InsertAssets(ctx context.Context, items []models.Asset) error { return nil }
func (s *stubRepo) UpdateAssetStatus(ctx context.Context, assetID string, status string) (bool, error) {
	return false, nil
}

func (s *stubRepo) InsertReadings(ctx context.Context, items []models.SensorReading) error {
	return nil
}
func (s *stubRepo) ListLatestReadings(ctx context.Context, facilityID string, since time.Time) ([]repository.LatestReading, error) {
	return s.latest[facilityID], nil
}
func (s *stubRepo) ListTrendAverages(ctx context.Context, facilityID string, from, to time.Time) ([]repository.TrendAverage, error) {
	return nil, nil
}
func (s *stubRepo) GetMetricKPI(ctx context.Context, facilityID, metricName string, since time.Time) (*repository.MetricKPI, error) {
	return s.kpis[metricName], nil
}
func (s *stubRepo) ListTimeseries(ctx context.Context, facilityID, metricName string, since time.Time, bucketMinutes int) ([]repository.TimeseriesRow, error) {
	return s.timeseries, nil
}
func (s *stubRepo) DeleteReadingsBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertRanges(ctx context.Context, items []models.OperationalRange) error {
	return nil
}
func (s *stubRepo) ListRangesByFacility(ctx context.Context, facilityID string) ([]models.OperationalRange, error) {
	return s.ranges[facilityID], nil
}

func (s *stubRepo) UpsertActiveInsight(ctx context.Context, item *models.Insight) error { return nil }
func (s *stubRepo) ListActiveInsights(ctx context.Context, facilityID string) ([]models.Insight, error) {
	return s.insights[facilityID], nil
}
func (s *stubRepo) ResolveInsight(ctx context.Context, facilityID string, assetID *string, metricName, thresholdType string, resolvedAt time.Time) error {
	return nil
}
func (s *stubRepo) ListAssetIDsWithActiveOutOfRange(ctx context.Context, facilityID string) ([]string, error) {
	return nil, nil
}
