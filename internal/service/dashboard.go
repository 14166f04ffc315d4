package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"plantmonitor/internal/models"
	"plantmonitor/internal/repository"
)

var (
	ErrFacilityNotFound = errors.New("facility not found")
	ErrUnknownMetric    = errors.New("unknown metric")
)

var metricUnits = map[string]string{
	models.MetricTemperature: "°C",
	models.MetricPressure:    "bar",
	models.MetricPower:       "kW",
	models.MetricProduction:  "units/hr",
}

// FacilityItem is one row in the facilities list.
type FacilityItem struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	Type       string    `json:"type"`
	AssetCount int64     `json:"asset_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// MetricBand is the configured range echoed next to a live value.
type MetricBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AssetMetric is the latest value of one metric on one asset.
type AssetMetric struct {
	Value float64     `json:"value"`
	Unit  string      `json:"unit"`
	Range *MetricBand `json:"range,omitempty"`
}

// AssetView is an asset with its latest reading per metric.
type AssetView struct {
	ID      string                 `json:"id"`
	Name    string                 `json:"name"`
	Type    string                 `json:"type"`
	Status  string                 `json:"status"`
	Metrics map[string]AssetMetric `json:"metrics"`
}

// KPIItem is one facility-wide aggregate over the summary window.
type KPIItem struct {
	MetricName   string  `json:"metric_name"`
	CurrentValue float64 `json:"current_value"`
	AvgValue     float64 `json:"avg_value"`
	MinValue     float64 `json:"min_value"`
	MaxValue     float64 `json:"max_value"`
	Unit         string  `json:"unit"`
}

// InsightItem is an active insight with its asset name resolved.
type InsightItem struct {
	Severity    string    `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DetectedAt  time.Time `json:"detected_at"`
	AssetName   *string   `json:"asset_name,omitempty"`
}

// FacilitySummary is the full dashboard payload for one facility.
type FacilitySummary struct {
	FacilityID        string        `json:"facility_id"`
	FacilityName      string        `json:"facility_name"`
	Location          string        `json:"location"`
	FacilityType      string        `json:"facility_type"`
	TotalAssets       int           `json:"total_assets"`
	OperationalCount  int           `json:"operational_count"`
	MaintenanceCount  int           `json:"maintenance_count"`
	ActiveAlertsCount int           `json:"active_alerts_count"`
	KPIs              []KPIItem     `json:"kpis"`
	Insights          []InsightItem `json:"insights"`
	Assets            []AssetView   `json:"assets"`
	PeriodHours       int           `json:"period_hours"`
}

// TimeseriesPoint is one downsampled chart point.
type TimeseriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// AssetSeries is one asset's bucketed series for a metric.
type AssetSeries struct {
	AssetID   string            `json:"asset_id"`
	AssetName string            `json:"asset_name"`
	Data      []TimeseriesPoint `json:"data"`
}

// Timeseries is the chart payload for one facility and metric.
type Timeseries struct {
	FacilityID    string        `json:"facility_id"`
	FacilityName  string        `json:"facility_name"`
	MetricName    string        `json:"metric_name"`
	Unit          string        `json:"unit"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	BucketMinutes int           `json:"bucket_minutes"`
	Series        []AssetSeries `json:"series"`
}

// DashboardService is the read-side veneer over the repository: it shapes
// stored rows into dashboard payloads and never mutates state.
type DashboardService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func NewDashboardService(repo repository.Repository, logger *zap.Logger) *DashboardService {
	return &DashboardService{Repo: repo, Logger: logger}
}

func (s *DashboardService) ListFacilities(ctx context.Context) ([]FacilityItem, error) {
	rows, err := s.Repo.ListFacilitiesWithCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	items := make([]FacilityItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, FacilityItem{
			ID:         r.ID,
			Name:       r.Name,
			Location:   r.Location,
			Type:       r.Type,
			AssetCount: r.AssetCount,
			CreatedAt:  r.CreatedAt,
		})
	}
	return items, nil
}

// Summary assembles the dashboard payload for one facility. periodHours
// bounds the KPI window; the latest-value window is fixed at one hour so
// stale assets drop their metrics instead of showing old numbers as live.
func (s *DashboardService) Summary(ctx context.Context, facilityID string, periodHours int) (*FacilitySummary, error) {
	facility, err := s.Repo.GetFacilityByID(ctx, facilityID)
	if err != nil {
		return nil, fmt.Errorf("get facility: %w", err)
	}
	if facility == nil {
		return nil, ErrFacilityNotFound
	}

	now := time.Now().UTC()

	assets, err := s.Repo.ListAssetsByFacility(ctx, facilityID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	latest, err := s.Repo.ListLatestReadings(ctx, facilityID, now.Add(-time.Hour))
	if err != nil {
		return nil, fmt.Errorf("list latest readings: %w", err)
	}
	ranges, err := s.Repo.ListRangesByFacility(ctx, facilityID)
	if err != nil {
		return nil, fmt.Errorf("list ranges: %w", err)
	}
	insights, err := s.Repo.ListActiveInsights(ctx, facilityID)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	sort.SliceStable(insights, func(i, j int) bool {
		ri, rj := models.SeverityRank(insights[i].Severity), models.SeverityRank(insights[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return insights[i].DetectedAt.After(insights[j].DetectedAt)
	})

	summary := &FacilitySummary{
		FacilityID:   facility.ID,
		FacilityName: facility.Name,
		Location:     facility.Location,
		FacilityType: facility.Type,
		TotalAssets:  len(assets),
		PeriodHours:  periodHours,
	}

	type assetMetric struct{ AssetID, MetricName string }
	bandByKey := make(map[assetMetric]MetricBand, len(ranges))
	for _, r := range ranges {
		bandByKey[assetMetric{r.AssetID, r.MetricName}] = MetricBand{Min: r.MinValue, Max: r.MaxValue}
	}
	metricsByAsset := make(map[string]map[string]AssetMetric, len(assets))
	for _, lr := range latest {
		m := metricsByAsset[lr.AssetID]
		if m == nil {
			m = make(map[string]AssetMetric, 4)
			metricsByAsset[lr.AssetID] = m
		}
		entry := AssetMetric{Value: lr.Value, Unit: lr.Unit}
		if band, ok := bandByKey[assetMetric{lr.AssetID, lr.MetricName}]; ok {
			entry.Range = &band
		}
		m[lr.MetricName] = entry
	}

	assetNameByID := make(map[string]string, len(assets))
	summary.Assets = make([]AssetView, 0, len(assets))
	for _, a := range assets {
		assetNameByID[a.ID] = a.Name
		switch a.Status {
		case models.AssetStatusMaintenance:
			summary.MaintenanceCount++
		default:
			summary.OperationalCount++
		}
		summary.Assets = append(summary.Assets, AssetView{
			ID:      a.ID,
			Name:    a.Name,
			Type:    a.Type,
			Status:  a.Status,
			Metrics: metricsByAsset[a.ID],
		})
	}

	summary.Insights = make([]InsightItem, 0, len(insights))
	for _, in := range insights {
		item := InsightItem{
			Severity:    in.Severity,
			Title:       in.Title,
			Description: in.Description,
			DetectedAt:  in.DetectedAt,
		}
		if in.AssetID != nil {
			if name, ok := assetNameByID[*in.AssetID]; ok {
				item.AssetName = &name
			}
		}
		if in.Severity == models.SeverityHigh || in.Severity == models.SeverityMedium {
			summary.ActiveAlertsCount++
		}
		summary.Insights = append(summary.Insights, item)
	}

	summary.KPIs, err = s.buildKPIs(ctx, facilityID, now.Add(-time.Duration(periodHours)*time.Hour))
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// buildKPIs aggregates power and production facility-wide and derives an
// efficiency ratio (units produced per kW, as a percentage) from the two.
func (s *DashboardService) buildKPIs(ctx context.Context, facilityID string, since time.Time) ([]KPIItem, error) {
	var kpis []KPIItem
	var power, production *repository.MetricKPI

	for _, metric := range []string{models.MetricPower, models.MetricProduction} {
		kpi, err := s.Repo.GetMetricKPI(ctx, facilityID, metric, since)
		if err != nil {
			return nil, fmt.Errorf("kpi %s: %w", metric, err)
		}
		if kpi == nil {
			continue
		}
		switch metric {
		case models.MetricPower:
			power = kpi
		case models.MetricProduction:
			production = kpi
		}
		kpis = append(kpis, KPIItem{
			MetricName:   kpi.MetricName,
			CurrentValue: kpi.CurrentValue,
			AvgValue:     kpi.AvgValue,
			MinValue:     kpi.MinValue,
			MaxValue:     kpi.MaxValue,
			Unit:         kpi.Unit,
		})
	}

	if power != nil && production != nil && power.CurrentValue > 0 {
		eff, _ := decimal.NewFromFloat(production.CurrentValue).
			Div(decimal.NewFromFloat(power.CurrentValue)).
			Mul(decimal.NewFromInt(100)).
			Round(2).Float64()
		kpis = append(kpis, KPIItem{
			MetricName:   "efficiency",
			CurrentValue: eff,
			AvgValue:     eff,
			MinValue:     eff,
			MaxValue:     eff,
			Unit:         "%",
		})
	}
	return kpis, nil
}

func (s *DashboardService) Timeseries(ctx context.Context, facilityID, metricName string, hours, bucketMinutes int) (*Timeseries, error) {
	unit, ok := metricUnits[metricName]
	if !ok {
		return nil, ErrUnknownMetric
	}
	facility, err := s.Repo.GetFacilityByID(ctx, facilityID)
	if err != nil {
		return nil, fmt.Errorf("get facility: %w", err)
	}
	if facility == nil {
		return nil, ErrFacilityNotFound
	}

	end := time.Now().UTC()
	start := end.Add(-time.Duration(hours) * time.Hour)

	rows, err := s.Repo.ListTimeseries(ctx, facilityID, metricName, start, bucketMinutes)
	if err != nil {
		return nil, fmt.Errorf("list timeseries: %w", err)
	}

	out := &Timeseries{
		FacilityID:    facility.ID,
		FacilityName:  facility.Name,
		MetricName:    metricName,
		Unit:          unit,
		Start:         start,
		End:           end,
		BucketMinutes: bucketMinutes,
		Series:        []AssetSeries{},
	}

	// Rows arrive ordered by asset name then bucket.
	indexByAsset := make(map[string]int)
	for _, r := range rows {
		idx, ok := indexByAsset[r.AssetID]
		if !ok {
			idx = len(out.Series)
			indexByAsset[r.AssetID] = idx
			out.Series = append(out.Series, AssetSeries{
				AssetID:   r.AssetID,
				AssetName: r.AssetName,
			})
		}
		out.Series[idx].Data = append(out.Series[idx].Data, TimeseriesPoint{
			Timestamp: r.Bucket,
			Value:     r.AvgValue,
		})
	}
	return out, nil
}
