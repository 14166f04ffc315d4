package analysis

import (
	"context"
	"sync"
	"time"

	"plantmonitor/internal/models"
	"plantmonitor/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// It implements the full interface but only the paths exercised by the
// analysis cycle carry real behavior. Guarded by a mutex so fan-out tests
// stay race-clean.
type stubRepo struct {
	mu          sync.Mutex
	facilityIDs []string
	assets      map[string][]models.Asset           // facilityID -> assets
	latest      map[string][]repository.LatestReading
	trends      map[string][]repository.TrendAverage
	ranges      map[string][]models.OperationalRange

	insights     []models.Insight
	statusByID   map[string]string
	statusWrites int
	nextID       int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		assets:     make(map[string][]models.Asset),
		latest:     make(map[string][]repository.LatestReading),
		trends:     make(map[string][]repository.TrendAverage),
		ranges:     make(map[string][]models.OperationalRange),
		statusByID: make(map[string]string),
	}
}

func (s *stubRepo) addAsset(facilityID string, a models.Asset) {
	if a.Status == "" {
		a.Status = models.AssetStatusOperational
	}
	s.assets[facilityID] = append(s.assets[facilityID], a)
	s.statusByID[a.ID] = a.Status
}

func (s *stubRepo) CountFacilities(ctx context.Context) (int64, error) {
	return int64(len(s.facilityIDs)), nil
}
func (s *stubRepo) ListFacilityIDs(ctx context.Context) ([]string, error) {
	return s.facilityIDs, nil
}
func (s *stubRepo) ListFacilitiesWithCounts(ctx context.Context) ([]repository.FacilityWithCount, error) {
	return nil, nil
}
func (s *stubRepo) GetFacilityByID(ctx context.Context, id string) (*models.Facility, error) {
	return nil, nil
}
func (s *stubRepo) InsertFacility(ctx context.Context, item *models.Facility) error { return nil }
func (s *stubRepo) ListAssets(ctx context.Context) ([]models.Asset, error) {
	var out []models.Asset
	for _, group := range s.assets {
		out = append(out, group...)
	}
	return out, nil
}
func (s *stubRepo) ListAssetsByFacility(ctx context.Context, facilityID string) ([]models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Asset, 0, len(s.assets[facilityID]))
	for _, a := range s.assets[facilityID] {
		a.Status = s.statusByID[a.ID]
		out = append(out, a)
	}
	return out, nil
}
func (s *stubRepo) InsertAssets(ctx context.Context, items []models.Asset) error { return nil }
func (s *stubRepo) UpdateAssetStatus(ctx context.Context, assetID string, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusByID[assetID] == status {
		return false, nil
	}
	s.statusByID[assetID] = status
	s.statusWrites++
	return true, nil
}

func (s *stubRepo) InsertReadings(ctx context.Context, items []models.SensorReading) error {
	return nil
}
func (s *stubRepo) ListLatestReadings(ctx context.Context, facilityID string, since time.Time) ([]repository.LatestReading, error) {
	return s.latest[facilityID], nil
}
func (s *stubRepo) ListTrendAverages(ctx context.Context, facilityID string, from, to time.Time) ([]repository.TrendAverage, error) {
	return s.trends[facilityID], nil
}
func (s *stubRepo) GetMetricKPI(ctx context.Context, facilityID, metricName string, since time.Time) (*repository.MetricKPI, error) {
	return nil, nil
}
func (s *stubRepo) ListTimeseries(ctx context.Context, facilityID, metricName string, since time.Time, bucketMinutes int) ([]repository.TimeseriesRow, error) {
	return nil, nil
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

func (s *stubRepo) UpsertActiveInsight(ctx context.Context, item *models.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.insights {
		in := &s.insights[i]
		if !in.IsActive || in.FacilityID != item.FacilityID {
			continue
		}
		if !sameAssetID(in.AssetID, item.AssetID) || in.MetricName != item.MetricName || in.ThresholdType != item.ThresholdType {
			continue
		}
		in.Severity = item.Severity
		in.Title = item.Title
		in.Description = item.Description
		in.Context = item.Context
		in.UpdatedAt = time.Now().UTC()
		return nil
	}
	s.nextID++
	item.ID = string(rune('a' + s.nextID))
	s.insights = append(s.insights, *item)
	return nil
}
func (s *stubRepo) ListActiveInsights(ctx context.Context, facilityID string) ([]models.Insight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Insight
	for _, in := range s.insights {
		if in.IsActive && in.FacilityID == facilityID {
			out = append(out, in)
		}
	}
	return out, nil
}
func (s *stubRepo) ResolveInsight(ctx context.Context, facilityID string, assetID *string, metricName, thresholdType string, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.insights {
		in := &s.insights[i]
		if !in.IsActive || in.FacilityID != facilityID {
			continue
		}
		if !sameAssetID(in.AssetID, assetID) || in.MetricName != metricName || in.ThresholdType != thresholdType {
			continue
		}
		in.IsActive = false
		resolved := resolvedAt
		in.ResolvedAt = &resolved
	}
	return nil
}
func (s *stubRepo) ListAssetIDsWithActiveOutOfRange(ctx context.Context, facilityID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, in := range s.insights {
		if !in.IsActive || in.FacilityID != facilityID || in.ThresholdType != models.ThresholdOutOfRange {
			continue
		}
		if in.AssetID == nil {
			continue
		}
		if _, ok := seen[*in.AssetID]; ok {
			continue
		}
		seen[*in.AssetID] = struct{}{}
		out = append(out, *in.AssetID)
	}
	return out, nil
}

func sameAssetID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
