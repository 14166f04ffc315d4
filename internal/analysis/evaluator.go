package analysis

import (
	"fmt"

	"plantmonitor/internal/models"
)

// Trend thresholds, in absolute metric units over the trend window.
const (
	risingTempDelta      = 10.0
	decliningOutputDelta = 20.0
)

// Evaluator classifies a single (asset, metric) observation against its
// configured range. It is stateless and never errors on numeric input.
type Evaluator struct{}

// Evaluate returns zero or more findings for one metric reading. At most one
// absolute-bound finding fires (out_of_range > approaching_limit > elevated /
// low_production, first match wins); trend findings are additive and
// independent of the absolute-bound result. A nil trend suppresses the trend
// checks.
func (e *Evaluator) Evaluate(assetID, assetName, metricName string, current float64, trend *float64, unit string, rng Range) []Finding {
	var findings []Finding

	add := func(thresholdType, severity, title, description string) {
		f := Finding{
			AssetID:       &assetID,
			AssetName:     assetName,
			MetricName:    metricName,
			ThresholdType: thresholdType,
			Severity:      severity,
			Title:         title,
			Description:   description,
			Context: map[string]any{
				"current_value": current,
				"min_value":     rng.Min,
				"max_value":     rng.Max,
				"unit":          unit,
			},
		}
		if trend != nil {
			f.Context["trend_value"] = *trend
		}
		findings = append(findings, f)
	}

	outOfRange := current < rng.Min || current > rng.Max

	switch metricName {
	case models.MetricTemperature:
		if outOfRange {
			add(models.ThresholdOutOfRange, models.SeverityHigh,
				"Temperature Out of Range",
				fmt.Sprintf("%s: Temperature at %.1f%s - outside acceptable range (%.0f-%.0f%s)",
					assetName, current, unit, rng.Min, rng.Max, unit))
		} else if current >= rng.Max*0.9 || current <= rng.Min*1.1 {
			add(models.ThresholdApproaching, models.SeverityMedium,
				"Temperature Approaching Limit",
				fmt.Sprintf("%s: Temperature at %.1f%s - approaching range limit", assetName, current, unit))
		} else if current >= rng.Max*0.75 {
			add(models.ThresholdElevated, models.SeverityLow,
				"Elevated Temperature",
				fmt.Sprintf("%s: Temperature at %.1f%s - monitor closely", assetName, current, unit))
		}
		if trend != nil && current > *trend+risingTempDelta {
			add(models.ThresholdRisingTrend, models.SeverityMedium,
				"Rising Temperature Trend",
				fmt.Sprintf("%s: Temperature increased %.1f%s in last hour", assetName, current-*trend, unit))
		}

	case models.MetricPressure:
		if outOfRange {
			add(models.ThresholdOutOfRange, models.SeverityHigh,
				"Pressure Out of Range",
				fmt.Sprintf("%s: Pressure at %.1f%s - outside acceptable range (%.0f-%.0f%s)",
					assetName, current, unit, rng.Min, rng.Max, unit))
		} else if current >= rng.Max*0.9 || current <= rng.Min*1.1 {
			add(models.ThresholdApproaching, models.SeverityMedium,
				"Pressure Approaching Limit",
				fmt.Sprintf("%s: Pressure at %.1f%s - monitor closely", assetName, current, unit))
		}

	case models.MetricPower:
		if outOfRange {
			add(models.ThresholdOutOfRange, models.SeverityHigh,
				"Power Out of Range",
				fmt.Sprintf("%s: Power at %.0f%s - outside acceptable range (%.0f-%.0f%s)",
					assetName, current, unit, rng.Min, rng.Max, unit))
		} else if current >= rng.Max*0.9 {
			add(models.ThresholdApproaching, models.SeverityMedium,
				"High Power Consumption",
				fmt.Sprintf("%s: Power at %.0f%s - approaching maximum", assetName, current, unit))
		}

	case models.MetricProduction:
		if outOfRange {
			add(models.ThresholdOutOfRange, models.SeverityHigh,
				"Production Out of Range",
				fmt.Sprintf("%s: Output at %.0f%s - outside acceptable range (%.0f-%.0f%s)",
					assetName, current, unit, rng.Min, rng.Max, unit))
		} else if current <= rng.Min*1.1 {
			add(models.ThresholdLowProduction, models.SeverityMedium,
				"Production Below Target",
				fmt.Sprintf("%s: Output at %.0f%s - below optimal range", assetName, current, unit))
		}
		if trend != nil && current < *trend-decliningOutputDelta {
			add(models.ThresholdDecliningTrend, models.SeverityMedium,
				"Production Declining",
				fmt.Sprintf("%s: Output dropped %.0f%s in last hour", assetName, *trend-current, unit))
		}
	}

	return findings
}
