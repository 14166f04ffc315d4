package repository

import (
	"context"
	"time"

	"plantmonitor/internal/models"
)

// FacilityWithCount is a facility row joined with its asset count.
type FacilityWithCount struct {
	models.Facility
	AssetCount int64
}

// LatestReading is the most recent reading per (asset, metric) inside the
// analysis window, joined with the asset name for description building.
type LatestReading struct {
	AssetID    string
	AssetName  string
	MetricName string
	Value      float64
	Unit       string
	Timestamp  time.Time
}

// TrendAverage is the average value per (asset, metric) over the trend
// comparison window (the slice of time just before the recent window).
type TrendAverage struct {
	AssetID    string
	MetricName string
	AvgValue   float64
}

// MetricKPI aggregates one metric facility-wide: the summed latest value
// across assets plus min/max/avg over the query window.
type MetricKPI struct {
	MetricName   string
	CurrentValue float64
	AvgValue     float64
	MinValue     float64
	MaxValue     float64
	Unit         string
}

// TimeseriesRow is one downsampled bucket for one asset.
type TimeseriesRow struct {
	AssetID   string
	AssetName string
	Bucket    time.Time
	AvgValue  float64
}

// Repository is the storage surface consumed by the analysis cycle, the
// ingestion job, the seeder and the dashboard veneer.
type Repository interface {
	// Facilities & assets.
	CountFacilities(ctx context.Context) (int64, error)
	ListFacilityIDs(ctx context.Context) ([]string, error)
	ListFacilitiesWithCounts(ctx context.Context) ([]FacilityWithCount, error)
	GetFacilityByID(ctx context.Context, id string) (*models.Facility, error)
	InsertFacility(ctx context.Context, item *models.Facility) error
	ListAssets(ctx context.Context) ([]models.Asset, error)
	ListAssetsByFacility(ctx context.Context, facilityID string) ([]models.Asset, error)
	InsertAssets(ctx context.Context, items []models.Asset) error
	// UpdateAssetStatus writes the status only when it differs from the
	// stored value; reports whether a row actually changed.
	UpdateAssetStatus(ctx context.Context, assetID string, status string) (bool, error)

	// Sensor readings (append-only).
	InsertReadings(ctx context.Context, items []models.SensorReading) error
	ListLatestReadings(ctx context.Context, facilityID string, since time.Time) ([]LatestReading, error)
	ListTrendAverages(ctx context.Context, facilityID string, from, to time.Time) ([]TrendAverage, error)
	GetMetricKPI(ctx context.Context, facilityID, metricName string, since time.Time) (*MetricKPI, error)
	ListTimeseries(ctx context.Context, facilityID, metricName string, since time.Time, bucketMinutes int) ([]TimeseriesRow, error)
	DeleteReadingsBefore(ctx context.Context, before time.Time) (int64, error)

	// Operational ranges.
	InsertRanges(ctx context.Context, items []models.OperationalRange) error
	ListRangesByFacility(ctx context.Context, facilityID string) ([]models.OperationalRange, error)

	// Insights.
	UpsertActiveInsight(ctx context.Context, item *models.Insight) error
	ListActiveInsights(ctx context.Context, facilityID string) ([]models.Insight, error)
	ResolveInsight(ctx context.Context, facilityID string, assetID *string, metricName, thresholdType string, resolvedAt time.Time) error
	ListAssetIDsWithActiveOutOfRange(ctx context.Context, facilityID string) ([]string, error)
}
