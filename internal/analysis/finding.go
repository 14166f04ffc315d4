package analysis

import (
	"plantmonitor/internal/models"
)

// nilAssetID stands in for a NULL asset_id when building identity keys, so
// facility-level findings dedupe the same way asset-level ones do.
const nilAssetID = "00000000-0000-0000-0000-000000000000"

// Range is the configured operational band for one asset/metric.
type Range struct {
	Min  float64
	Max  float64
	Unit string
}

// Finding is one detected condition for one asset/metric in one cycle.
// It is transient; the reconciler turns findings into persisted insights.
type Finding struct {
	AssetID       *string
	AssetName     string
	MetricName    string
	ThresholdType string
	Severity      string
	Title         string
	Description   string

	// Context carries the evaluation inputs for dashboard drill-down.
	Context map[string]any
}

// insightKey identifies one insight's active lifetime within a facility.
type insightKey struct {
	AssetID       string
	MetricName    string
	ThresholdType string
}

func (f Finding) key() insightKey {
	assetID := nilAssetID
	if f.AssetID != nil {
		assetID = *f.AssetID
	}
	return insightKey{AssetID: assetID, MetricName: f.MetricName, ThresholdType: f.ThresholdType}
}

func keyForInsight(in models.Insight) insightKey {
	assetID := nilAssetID
	if in.AssetID != nil {
		assetID = *in.AssetID
	}
	return insightKey{AssetID: assetID, MetricName: in.MetricName, ThresholdType: in.ThresholdType}
}
