package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"plantmonitor/internal/repository"
)

// Notifier receives a pulse after a facility's cycle commits.
type Notifier interface {
	Signal(facilityID string)
}

// Cycle runs the full detection pass for facilities: load recent readings
// and trend averages, evaluate against configured ranges, reconcile the
// insight set, project asset statuses, then signal subscribers.
type Cycle struct {
	Repo       repository.Repository
	Evaluator  *Evaluator
	Reconciler *Reconciler
	Projector  *StatusProjector
	Hub        Notifier
	Logger     *zap.Logger

	// RecentWindow bounds "current" readings; TrendWindow bounds the
	// comparison slice that ends where RecentWindow begins.
	RecentWindow time.Duration
	TrendWindow  time.Duration

	// MaxConcurrent caps the facility fan-out in RunMany. Zero or negative
	// means unbounded.
	MaxConcurrent int

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// RunOnce executes one cycle for one facility. Overlapping calls for the
// same facility are skipped, not queued; the next scheduled run picks up
// the newer data anyway.
func (c *Cycle) RunOnce(ctx context.Context, facilityID string) error {
	if !c.tryBegin(facilityID) {
		if c.Logger != nil {
			c.Logger.Debug("analysis cycle already running, skipping",
				zap.String("facility_id", facilityID))
		}
		return nil
	}
	defer c.end(facilityID)

	now := time.Now().UTC()
	recentSince := now.Add(-c.RecentWindow)
	trendFrom := now.Add(-c.TrendWindow)

	latest, err := c.Repo.ListLatestReadings(ctx, facilityID, recentSince)
	if err != nil {
		return fmt.Errorf("list latest readings: %w", err)
	}
	trends, err := c.Repo.ListTrendAverages(ctx, facilityID, trendFrom, recentSince)
	if err != nil {
		return fmt.Errorf("list trend averages: %w", err)
	}
	ranges, err := c.Repo.ListRangesByFacility(ctx, facilityID)
	if err != nil {
		return fmt.Errorf("list ranges: %w", err)
	}

	type assetMetric struct {
		AssetID    string
		MetricName string
	}
	trendByKey := make(map[assetMetric]float64, len(trends))
	for _, t := range trends {
		trendByKey[assetMetric{t.AssetID, t.MetricName}] = t.AvgValue
	}
	rangeByKey := make(map[assetMetric]Range, len(ranges))
	for _, r := range ranges {
		rangeByKey[assetMetric{r.AssetID, r.MetricName}] = Range{Min: r.MinValue, Max: r.MaxValue, Unit: r.Unit}
	}

	var findings []Finding
	for _, reading := range latest {
		key := assetMetric{reading.AssetID, reading.MetricName}
		rng, ok := rangeByKey[key]
		if !ok {
			// Unconfigured metric, nothing to judge against.
			continue
		}
		var trend *float64
		if avg, ok := trendByKey[key]; ok {
			trend = &avg
		}
		findings = append(findings, c.Evaluator.Evaluate(
			reading.AssetID, reading.AssetName, reading.MetricName,
			reading.Value, trend, reading.Unit, rng)...)
	}

	if err := c.Reconciler.Reconcile(ctx, facilityID, findings); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	if err := c.Projector.Project(ctx, facilityID); err != nil {
		return fmt.Errorf("project statuses: %w", err)
	}

	if c.Hub != nil {
		c.Hub.Signal(facilityID)
	}
	if c.Logger != nil {
		c.Logger.Debug("analysis cycle finished",
			zap.String("facility_id", facilityID),
			zap.Int("readings", len(latest)),
			zap.Int("findings", len(findings)),
			zap.Duration("elapsed", time.Since(now)),
		)
	}
	return nil
}

// RunMany runs cycles for the given facilities with bounded concurrency.
// Per-facility failures are logged and do not stop the others.
func (c *Cycle) RunMany(ctx context.Context, facilityIDs []string) {
	limit := c.MaxConcurrent
	if limit <= 0 {
		limit = len(facilityIDs)
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for _, id := range facilityIDs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return
		}
		wg.Add(1)
		go func(facilityID string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := c.RunOnce(ctx, facilityID); err != nil && c.Logger != nil {
				c.Logger.Error("analysis cycle failed",
					zap.String("facility_id", facilityID),
					zap.Error(err))
			}
		}(id)
	}
	wg.Wait()
}

// RunAll runs one cycle for every facility.
func (c *Cycle) RunAll(ctx context.Context) error {
	ids, err := c.Repo.ListFacilityIDs(ctx)
	if err != nil {
		return fmt.Errorf("list facilities: %w", err)
	}
	c.RunMany(ctx, ids)
	return nil
}

func (c *Cycle) tryBegin(facilityID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight == nil {
		c.inFlight = make(map[string]struct{})
	}
	if _, running := c.inFlight[facilityID]; running {
		return false
	}
	c.inFlight[facilityID] = struct{}{}
	return true
}

func (c *Cycle) end(facilityID string) {
	c.mu.Lock()
	delete(c.inFlight, facilityID)
	c.mu.Unlock()
}
