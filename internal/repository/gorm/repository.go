package gormrepository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"plantmonitor/internal/models"
	"plantmonitor/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Facilities & assets -----------------------------------------------------

func (s *Store) CountFacilities(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Facility{}).Count(&total).Error
	return total, err
}

func (s *Store) ListFacilityIDs(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Facility{}).
		Order("name").
		Pluck("id", &ids).Error
	return ids, err
}

func (s *Store) ListFacilitiesWithCounts(ctx context.Context) ([]repository.FacilityWithCount, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []repository.FacilityWithCount
	err := s.db.WithContext(ctx).Raw(`
		SELECT f.*, COUNT(a.id) AS asset_count
		FROM facilities f
		LEFT JOIN assets a ON a.facility_id = f.id
		GROUP BY f.id
		ORDER BY f.name`).Scan(&items).Error
	return items, err
}

func (s *Store) GetFacilityByID(ctx context.Context, id string) (*models.Facility, error) {
	if s == nil || s.db == nil || id == "" {
		return nil, nil
	}
	var item models.Facility
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) InsertFacility(ctx context.Context, item *models.Facility) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListAssets(ctx context.Context) ([]models.Asset, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Asset
	err := s.db.WithContext(ctx).Order("name").Find(&items).Error
	return items, err
}

func (s *Store) ListAssetsByFacility(ctx context.Context, facilityID string) ([]models.Asset, error) {
	if s == nil || s.db == nil || facilityID == "" {
		return nil, nil
	}
	var items []models.Asset
	err := s.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Order("name").
		Find(&items).Error
	return items, err
}

func (s *Store) InsertAssets(ctx context.Context, items []models.Asset) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}
	return s.db.WithContext(ctx).CreateInBatches(items, 100).Error
}

func (s *Store) UpdateAssetStatus(ctx context.Context, assetID string, status string) (bool, error) {
	if s == nil || s.db == nil || assetID == "" {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("id = ? AND status <> ?", assetID, status).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// --- Sensor readings ---------------------------------------------------------

func (s *Store) InsertReadings(ctx context.Context, items []models.SensorReading) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}
	return s.db.WithContext(ctx).CreateInBatches(items, 500).Error
}

func (s *Store) ListLatestReadings(ctx context.Context, facilityID string, since time.Time) ([]repository.LatestReading, error) {
	if s == nil || s.db == nil || facilityID == "" {
		return nil, nil
	}
	var items []repository.LatestReading
	err := s.db.WithContext(ctx).Raw(`
		SELECT DISTINCT ON (a.id, sr.metric_name)
			a.id AS asset_id,
			a.name AS asset_name,
			sr.metric_name,
			sr.value,
			sr.unit,
			sr.timestamp
		FROM sensor_readings sr
		JOIN assets a ON a.id = sr.asset_id
		WHERE a.facility_id = ? AND sr.timestamp >= ?
		ORDER BY a.id, sr.metric_name, sr.timestamp DESC`,
		facilityID, since).Scan(&items).Error
	return items, err
}

func (s *Store) ListTrendAverages(ctx context.Context, facilityID string, from, to time.Time) ([]repository.TrendAverage, error) {
	if s == nil || s.db == nil || facilityID == "" {
		return nil, nil
	}
	var items []repository.TrendAverage
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			a.id AS asset_id,
			sr.metric_name,
			ROUND(AVG(sr.value)::numeric, 2) AS avg_value
		FROM sensor_readings sr
		JOIN assets a ON a.id = sr.asset_id
		WHERE a.facility_id = ? AND sr.timestamp BETWEEN ? AND ?
		GROUP BY a.id, sr.metric_name`,
		facilityID, from, to).Scan(&items).Error
	return items, err
}

func (s *Store) GetMetricKPI(ctx context.Context, facilityID, metricName string, since time.Time) (*repository.MetricKPI, error) {
	if s == nil || s.db == nil || facilityID == "" {
		return nil, nil
	}
	// Current total is the sum of each asset's latest reading; spread stats
	// come from the whole window.
	var current struct {
		CurrentValue float64
		Unit         string
	}
	err := s.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(l.value), 0) AS current_value,
			COALESCE(MAX(l.unit), '') AS unit
		FROM (
			SELECT DISTINCT ON (sr.asset_id) sr.value, sr.unit
			FROM sensor_readings sr
			JOIN assets a ON a.id = sr.asset_id
			WHERE a.facility_id = ? AND sr.metric_name = ? AND sr.timestamp >= ?
			ORDER BY sr.asset_id, sr.timestamp DESC
		) l`,
		facilityID, metricName, since).Scan(&current).Error
	if err != nil {
		return nil, err
	}
	if current.Unit == "" {
		// No readings in the window.
		return nil, nil
	}

	var window struct {
		AvgValue float64
		MinValue float64
		MaxValue float64
	}
	err = s.db.WithContext(ctx).Raw(`
		SELECT
			ROUND(AVG(sr.value)::numeric, 2) AS avg_value,
			ROUND(MIN(sr.value)::numeric, 2) AS min_value,
			ROUND(MAX(sr.value)::numeric, 2) AS max_value
		FROM sensor_readings sr
		JOIN assets a ON a.id = sr.asset_id
		WHERE a.facility_id = ? AND sr.metric_name = ? AND sr.timestamp >= ?`,
		facilityID, metricName, since).Scan(&window).Error
	if err != nil {
		return nil, err
	}

	return &repository.MetricKPI{
		MetricName:   metricName,
		CurrentValue: current.CurrentValue,
		AvgValue:     window.AvgValue,
		MinValue:     window.MinValue,
		MaxValue:     window.MaxValue,
		Unit:         current.Unit,
	}, nil
}

func (s *Store) ListTimeseries(ctx context.Context, facilityID, metricName string, since time.Time, bucketMinutes int) ([]repository.TimeseriesRow, error) {
	if s == nil || s.db == nil || facilityID == "" {
		return nil, nil
	}
	if bucketMinutes <= 0 {
		bucketMinutes = 5
	}
	var items []repository.TimeseriesRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			a.id AS asset_id,
			a.name AS asset_name,
			date_bin(make_interval(mins => ?), sr.timestamp, ?) AS bucket,
			ROUND(AVG(sr.value)::numeric, 2) AS avg_value
		FROM sensor_readings sr
		JOIN assets a ON a.id = sr.asset_id
		WHERE a.facility_id = ? AND sr.metric_name = ? AND sr.timestamp >= ?
		GROUP BY a.id, a.name, bucket
		ORDER BY a.name, bucket`,
		bucketMinutes, since, facilityID, metricName, since).Scan(&items).Error
	return items, err
}

func (s *Store) DeleteReadingsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("timestamp < ?", before).
		Delete(&models.SensorReading{})
	return res.RowsAffected, res.Error
}

// --- Operational ranges ------------------------------------------------------

func (s *Store) InsertRanges(ctx context.Context, items []models.OperationalRange) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}
	return s.db.WithContext(ctx).CreateInBatches(items, 200).Error
}

func (s *Store) ListRangesByFacility(ctx context.Context, facilityID string) ([]models.OperationalRange, error) {
	if s == nil || s.db == nil || facilityID == "" {
		return nil, nil
	}
	var items []models.OperationalRange
	err := s.db.WithContext(ctx).
		Joins("JOIN assets a ON a.id = asset_operational_ranges.asset_id").
		Where("a.facility_id = ?", facilityID).
		Find(&items).Error
	return items, err
}

// --- Insights ----------------------------------------------------------------

// UpsertActiveInsight inserts a new active row for the identity key
// (facility, asset-or-null, metric, threshold_type) or refreshes the existing
// one. detected_at is set only on insert; it marks first detection.
func (s *Store) UpsertActiveInsight(ctx context.Context, item *models.Insight) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}

	var existing models.Insight
	query := s.db.WithContext(ctx).
		Model(&models.Insight{}).
		Where("facility_id = ?", item.FacilityID).
		Where("metric_name = ?", item.MetricName).
		Where("threshold_type = ?", item.ThresholdType).
		Where("is_active = ?", true)
	if item.AssetID != nil {
		query = query.Where("asset_id = ?", *item.AssetID)
	} else {
		query = query.Where("asset_id IS NULL")
	}
	err := query.First(&existing).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if err == gorm.ErrRecordNotFound {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.IsActive = true
		if item.DetectedAt.IsZero() {
			item.DetectedAt = time.Now().UTC()
		}
		return s.db.WithContext(ctx).Create(item).Error
	}
	// Refresh in place; keep detected_at and identity stable.
	return s.db.WithContext(ctx).
		Model(&models.Insight{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"severity":    item.Severity,
			"title":       item.Title,
			"description": item.Description,
			"context":     item.Context,
			"updated_at":  time.Now().UTC(),
		}).Error
}

func (s *Store) ListActiveInsights(ctx context.Context, facilityID string) ([]models.Insight, error) {
	if s == nil || s.db == nil || facilityID == "" {
		return nil, nil
	}
	var items []models.Insight
	err := s.db.WithContext(ctx).
		Where("facility_id = ? AND is_active = ?", facilityID, true).
		Order(`CASE severity
			WHEN 'high' THEN 1
			WHEN 'medium' THEN 2
			WHEN 'low' THEN 3
			ELSE 4 END, detected_at DESC`).
		Find(&items).Error
	return items, err
}

func (s *Store) ResolveInsight(ctx context.Context, facilityID string, assetID *string, metricName, thresholdType string, resolvedAt time.Time) error {
	if s == nil || s.db == nil || facilityID == "" {
		return nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Insight{}).
		Where("facility_id = ?", facilityID).
		Where("metric_name = ?", metricName).
		Where("threshold_type = ?", thresholdType).
		Where("is_active = ?", true)
	if assetID != nil {
		query = query.Where("asset_id = ?", *assetID)
	} else {
		query = query.Where("asset_id IS NULL")
	}
	return query.Updates(map[string]any{
		"is_active":   false,
		"resolved_at": resolvedAt,
		"updated_at":  time.Now().UTC(),
	}).Error
}

func (s *Store) ListAssetIDsWithActiveOutOfRange(ctx context.Context, facilityID string) ([]string, error) {
	if s == nil || s.db == nil || facilityID == "" {
		return nil, nil
	}
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Insight{}).
		Distinct().
		Where("facility_id = ? AND is_active = ? AND threshold_type = ?", facilityID, true, models.ThresholdOutOfRange).
		Where("asset_id IS NOT NULL").
		Pluck("asset_id", &ids).Error
	return ids, err
}
