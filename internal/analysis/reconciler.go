package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"plantmonitor/internal/models"
	"plantmonitor/internal/repository"
)

// Reconciler diffs one cycle's findings against the facility's active
// insights: new keys create rows, repeated keys refresh in place, missing
// keys resolve. Must not run concurrently with itself for one facility;
// Cycle enforces that.
type Reconciler struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (r *Reconciler) Reconcile(ctx context.Context, facilityID string, findings []Finding) error {
	if r == nil || r.Repo == nil {
		return nil
	}
	now := time.Now().UTC()

	seen := make(map[insightKey]struct{}, len(findings))
	for _, f := range findings {
		seen[f.key()] = struct{}{}
		item := &models.Insight{
			FacilityID:    facilityID,
			AssetID:       f.AssetID,
			MetricName:    f.MetricName,
			ThresholdType: f.ThresholdType,
			Severity:      f.Severity,
			Title:         f.Title,
			Description:   f.Description,
			Context:       marshalContext(f.Context),
			IsActive:      true,
			DetectedAt:    now,
		}
		if err := r.Repo.UpsertActiveInsight(ctx, item); err != nil {
			return fmt.Errorf("upsert insight %s/%s: %w", f.MetricName, f.ThresholdType, err)
		}
	}

	active, err := r.Repo.ListActiveInsights(ctx, facilityID)
	if err != nil {
		return fmt.Errorf("list active insights: %w", err)
	}
	for _, in := range active {
		if _, ok := seen[keyForInsight(in)]; ok {
			continue
		}
		if err := r.Repo.ResolveInsight(ctx, facilityID, in.AssetID, in.MetricName, in.ThresholdType, now); err != nil {
			return fmt.Errorf("resolve insight %s/%s: %w", in.MetricName, in.ThresholdType, err)
		}
		if r.Logger != nil {
			r.Logger.Info("insight resolved",
				zap.String("facility_id", facilityID),
				zap.String("metric", in.MetricName),
				zap.String("threshold_type", in.ThresholdType),
			)
		}
	}
	return nil
}

func marshalContext(ctx map[string]any) datatypes.JSON {
	if len(ctx) == 0 {
		return nil
	}
	raw, err := json.Marshal(ctx)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
