package ingest

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"plantmonitor/internal/models"
	"plantmonitor/internal/repository"
)

// metricSpec defines the synthetic band one metric oscillates in. The band
// matches the seeded operational ranges so most readings land in range and
// the tails occasionally cross a limit.
type metricSpec struct {
	Name string
	Unit string
	Low  float64
	High float64
}

var metricSpecs = []metricSpec{
	{Name: models.MetricTemperature, Unit: "°C", Low: 60, High: 120},
	{Name: models.MetricPressure, Unit: "bar", Low: 1, High: 10},
	{Name: models.MetricPower, Unit: "kW", Low: 100, High: 500},
	{Name: models.MetricProduction, Unit: "units/hr", Low: 50, High: 200},
}

// Generator produces one synthetic reading per asset per metric on every
// tick. Each asset follows its own slow sinusoid with gaussian jitter, so
// values drift believably instead of jumping.
type Generator struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

// Batch builds readings for all assets at the given instant without
// persisting them. The seeder reuses it for historical backfill.
func Batch(assets []models.Asset, now time.Time) []models.SensorReading {
	readings := make([]models.SensorReading, 0, len(assets)*len(metricSpecs))
	t := float64(now.Unix())
	for _, asset := range assets {
		seed := phase(asset.ID)
		rnd := rand.New(rand.NewSource(now.UnixNano() ^ int64(seed*1e6)))
		for _, spec := range metricSpecs {
			mid := (spec.Low + spec.High) / 2
			amp := (spec.High - spec.Low) / 2 * 0.8
			value := mid + amp*math.Sin(seed+t/3600)
			value += rnd.NormFloat64() * (spec.High - spec.Low) * 0.04
			value = math.Max(spec.Low*0.9, math.Min(spec.High*1.1, value))
			rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()

			readings = append(readings, models.SensorReading{
				ID:         uuid.NewString(),
				AssetID:    asset.ID,
				MetricName: spec.Name,
				Value:      rounded,
				Unit:       spec.Unit,
				Timestamp:  now,
			})
		}
	}
	return readings
}

// GenerateOnce writes one batch of readings for every asset and returns the
// distinct facility IDs touched, so the caller can kick analysis for them.
func (g *Generator) GenerateOnce(ctx context.Context) ([]string, error) {
	assets, err := g.Repo.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	if len(assets) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	readings := Batch(assets, now)
	if err := g.Repo.InsertReadings(ctx, readings); err != nil {
		return nil, fmt.Errorf("insert readings: %w", err)
	}

	seen := make(map[string]struct{}, 4)
	var facilityIDs []string
	for _, asset := range assets {
		if _, ok := seen[asset.FacilityID]; ok {
			continue
		}
		seen[asset.FacilityID] = struct{}{}
		facilityIDs = append(facilityIDs, asset.FacilityID)
	}

	if g.Logger != nil {
		g.Logger.Debug("sensor readings generated",
			zap.Int("readings", len(readings)),
			zap.Int("assets", len(assets)),
		)
	}
	return facilityIDs, nil
}

// phase derives a stable per-asset phase offset so assets with adjacent IDs
// do not oscillate in lockstep.
func phase(assetID string) float64 {
	h := fnv.New32a()
	h.Write([]byte(assetID))
	return float64(h.Sum32()%628) / 100
}
