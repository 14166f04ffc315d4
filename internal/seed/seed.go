package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plantmonitor/internal/ingest"
	"plantmonitor/internal/models"
	"plantmonitor/internal/repository"
)

// backfillInterval is the spacing of backfilled readings. Denser than the
// live ingestion tick so trend windows have enough points right after boot.
const backfillInterval = 5 * time.Minute

type assetDef struct {
	Name string
	Type string
}

type facilityDef struct {
	Name     string
	Location string
	Type     string
	Assets   []assetDef
}

var facilities = []facilityDef{
	{
		Name: "Power Station Alpha", Location: "Houston, TX", Type: "power_station",
		Assets: []assetDef{
			{"Turbine A", "turbine"},
			{"Turbine B", "turbine"},
			{"Boiler #1", "boiler"},
			{"Generator G1", "generator"},
			{"Cooling Tower CT1", "cooling_tower"},
		},
	},
	{
		Name: "Chemical Plant Beta", Location: "Rotterdam, NL", Type: "chemical_plant",
		Assets: []assetDef{
			{"Reactor R1", "reactor"},
			{"Reactor R2", "reactor"},
			{"Compressor C1", "compressor"},
			{"Distillation Column D1", "distillation_column"},
			{"Heat Exchanger HX1", "heat_exchanger"},
			{"Pump P1", "pump"},
		},
	},
	{
		Name: "Manufacturing Gamma", Location: "São Paulo, BR", Type: "manufacturing",
		Assets: []assetDef{
			{"CNC Machine M1", "cnc_machine"},
			{"CNC Machine M2", "cnc_machine"},
			{"Assembly Robot AR1", "robot"},
			{"Conveyor Belt CB1", "conveyor"},
			{"Furnace F1", "furnace"},
		},
	},
}

type band struct{ Min, Max float64 }

// Acceptable bands per asset type, keyed by metric name.
var assetTypeRanges = map[string]map[string]band{
	"turbine": {
		models.MetricTemperature: {60, 115},
		models.MetricPressure:    {1, 10},
		models.MetricPower:       {100, 500},
		models.MetricProduction:  {50, 200},
	},
	"boiler": {
		models.MetricTemperature: {65, 125},
		models.MetricPressure:    {2, 10},
		models.MetricPower:       {150, 500},
		models.MetricProduction:  {50, 200},
	},
	"generator": {
		models.MetricTemperature: {60, 110},
		models.MetricPressure:    {1, 9},
		models.MetricPower:       {100, 500},
		models.MetricProduction:  {60, 200},
	},
	"cooling_tower": {
		models.MetricTemperature: {50, 100},
		models.MetricPressure:    {1, 8},
		models.MetricPower:       {100, 400},
		models.MetricProduction:  {50, 180},
	},
	"reactor": {
		models.MetricTemperature: {70, 130},
		models.MetricPressure:    {2, 10},
		models.MetricPower:       {150, 500},
		models.MetricProduction:  {50, 200},
	},
	"compressor": {
		models.MetricTemperature: {60, 115},
		models.MetricPressure:    {3, 10},
		models.MetricPower:       {150, 500},
		models.MetricProduction:  {50, 200},
	},
	"distillation_column": {
		models.MetricTemperature: {65, 120},
		models.MetricPressure:    {1, 9},
		models.MetricPower:       {120, 480},
		models.MetricProduction:  {50, 200},
	},
	"heat_exchanger": {
		models.MetricTemperature: {60, 115},
		models.MetricPressure:    {1, 9},
		models.MetricPower:       {100, 450},
		models.MetricProduction:  {50, 200},
	},
	"pump": {
		models.MetricTemperature: {55, 105},
		models.MetricPressure:    {2, 10},
		models.MetricPower:       {100, 400},
		models.MetricProduction:  {50, 180},
	},
	"cnc_machine": {
		models.MetricTemperature: {60, 110},
		models.MetricPressure:    {1, 8},
		models.MetricPower:       {120, 480},
		models.MetricProduction:  {60, 200},
	},
	"robot": {
		models.MetricTemperature: {55, 105},
		models.MetricPressure:    {1, 7},
		models.MetricPower:       {100, 450},
		models.MetricProduction:  {50, 190},
	},
	"conveyor": {
		models.MetricTemperature: {50, 100},
		models.MetricPressure:    {1, 6},
		models.MetricPower:       {80, 350},
		models.MetricProduction:  {50, 180},
	},
	"furnace": {
		models.MetricTemperature: {70, 130},
		models.MetricPressure:    {1, 9},
		models.MetricPower:       {200, 500},
		models.MetricProduction:  {50, 200},
	},
}

var metricUnits = map[string]string{
	models.MetricTemperature: "°C",
	models.MetricPressure:    "bar",
	models.MetricPower:       "kW",
	models.MetricProduction:  "units/hr",
}

// Seeder populates an empty database with demo facilities, assets, their
// operational ranges and a stretch of historical readings.
type Seeder struct {
	Repo   repository.Repository
	Logger *zap.Logger

	// Backfill is how far back historical readings reach. Zero skips the
	// backfill and leaves the live ingestion job to fill the windows.
	Backfill time.Duration
}

// Ensure seeds the database when it holds no facilities. It is safe to call
// on every boot.
func (s *Seeder) Ensure(ctx context.Context) error {
	count, err := s.Repo.CountFacilities(ctx)
	if err != nil {
		return fmt.Errorf("count facilities: %w", err)
	}
	if count > 0 {
		return nil
	}
	if s.Logger != nil {
		s.Logger.Info("empty database, seeding demo data")
	}

	var allAssets []models.Asset
	for _, fd := range facilities {
		fac := &models.Facility{
			ID:       uuid.NewString(),
			Name:     fd.Name,
			Location: fd.Location,
			Type:     fd.Type,
		}
		if err := s.Repo.InsertFacility(ctx, fac); err != nil {
			return fmt.Errorf("insert facility %s: %w", fd.Name, err)
		}

		assets := make([]models.Asset, 0, len(fd.Assets))
		var ranges []models.OperationalRange
		for _, ad := range fd.Assets {
			asset := models.Asset{
				ID:         uuid.NewString(),
				FacilityID: fac.ID,
				Name:       ad.Name,
				Type:       ad.Type,
				Status:     models.AssetStatusOperational,
			}
			assets = append(assets, asset)

			bands, ok := assetTypeRanges[ad.Type]
			if !ok {
				bands = assetTypeRanges["turbine"]
			}
			for metric, b := range bands {
				ranges = append(ranges, models.OperationalRange{
					ID:         uuid.NewString(),
					AssetID:    asset.ID,
					MetricName: metric,
					MinValue:   b.Min,
					MaxValue:   b.Max,
					Unit:       metricUnits[metric],
				})
			}
		}
		if err := s.Repo.InsertAssets(ctx, assets); err != nil {
			return fmt.Errorf("insert assets for %s: %w", fd.Name, err)
		}
		if err := s.Repo.InsertRanges(ctx, ranges); err != nil {
			return fmt.Errorf("insert ranges for %s: %w", fd.Name, err)
		}
		allAssets = append(allAssets, assets...)
	}

	if s.Backfill > 0 {
		if err := s.backfillReadings(ctx, allAssets); err != nil {
			return err
		}
	}

	if s.Logger != nil {
		s.Logger.Info("seed complete",
			zap.Int("facilities", len(facilities)),
			zap.Int("assets", len(allAssets)),
			zap.Duration("backfill", s.Backfill),
		)
	}
	return nil
}

func (s *Seeder) backfillReadings(ctx context.Context, assets []models.Asset) error {
	now := time.Now().UTC()
	start := now.Add(-s.Backfill)

	total := 0
	for ts := start; !ts.After(now); ts = ts.Add(backfillInterval) {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := ingest.Batch(assets, ts)
		if err := s.Repo.InsertReadings(ctx, batch); err != nil {
			return fmt.Errorf("backfill readings at %s: %w", ts.Format(time.RFC3339), err)
		}
		total += len(batch)
	}

	if s.Logger != nil {
		s.Logger.Info("historical readings backfilled", zap.Int("readings", total))
	}
	return nil
}
