package analysis

import (
	"strings"
	"testing"

	"plantmonitor/internal/models"
)

var tempRange = Range{Min: 60, Max: 120, Unit: "°C"}

func evalTemp(t *testing.T, current float64, trend *float64) []Finding {
	t.Helper()
	e := &Evaluator{}
	return e.Evaluate("asset-1", "Turbine A", models.MetricTemperature, current, trend, "°C", tempRange)
}

func findingTypes(findings []Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.ThresholdType)
	}
	return out
}

func requireSingle(t *testing.T, findings []Finding, thresholdType, severity string) Finding {
	t.Helper()
	if len(findings) != 1 {
		t.Fatalf("got %d findings %v, want 1", len(findings), findingTypes(findings))
	}
	f := findings[0]
	if f.ThresholdType != thresholdType {
		t.Fatalf("threshold type %q, want %q", f.ThresholdType, thresholdType)
	}
	if f.Severity != severity {
		t.Fatalf("severity %q, want %q", f.Severity, severity)
	}
	return f
}

func TestEvaluateTemperatureOutOfRange(t *testing.T) {
	f := requireSingle(t, evalTemp(t, 121, nil), models.ThresholdOutOfRange, models.SeverityHigh)
	if !strings.Contains(f.Description, "outside acceptable range (60-120°C)") {
		t.Fatalf("description: %q", f.Description)
	}
	if f.AssetID == nil || *f.AssetID != "asset-1" {
		t.Fatal("finding lost its asset id")
	}
}

func TestEvaluateTemperatureBelowMinIsOutOfRange(t *testing.T) {
	requireSingle(t, evalTemp(t, 59.9, nil), models.ThresholdOutOfRange, models.SeverityHigh)
}

func TestEvaluateTemperatureApproachingLimit(t *testing.T) {
	// 115 >= 120*0.9 but still inside the range.
	requireSingle(t, evalTemp(t, 115, nil), models.ThresholdApproaching, models.SeverityMedium)
	// Low side: 65 <= 60*1.1.
	requireSingle(t, evalTemp(t, 65, nil), models.ThresholdApproaching, models.SeverityMedium)
}

func TestEvaluateTemperatureElevated(t *testing.T) {
	// 95 >= 120*0.75 but below the approaching band.
	requireSingle(t, evalTemp(t, 95, nil), models.ThresholdElevated, models.SeverityLow)
}

func TestEvaluateTemperatureNominal(t *testing.T) {
	if findings := evalTemp(t, 80, nil); len(findings) != 0 {
		t.Fatalf("expected no findings, got %v", findingTypes(findings))
	}
}

func TestEvaluateAbsolutePrecedence(t *testing.T) {
	// A value can match several bands; only the most severe one fires.
	for _, current := range []float64{121, 115, 95} {
		findings := evalTemp(t, current, nil)
		if len(findings) != 1 {
			t.Fatalf("current=%v: got %v, want exactly one", current, findingTypes(findings))
		}
	}
}

func TestEvaluateRisingTrendIsAdditive(t *testing.T) {
	trend := 100.0
	findings := evalTemp(t, 115, &trend)
	if len(findings) != 2 {
		t.Fatalf("got %v, want approaching_limit plus rising_trend", findingTypes(findings))
	}
	types := map[string]bool{}
	for _, f := range findings {
		types[f.ThresholdType] = true
	}
	if !types[models.ThresholdApproaching] || !types[models.ThresholdRisingTrend] {
		t.Fatalf("got %v", findingTypes(findings))
	}
}

func TestEvaluateRisingTrendRequiresDelta(t *testing.T) {
	// Exactly +10 over the baseline does not fire; the rise must exceed it.
	trend := 70.0
	if findings := evalTemp(t, 80, &trend); len(findings) != 0 {
		t.Fatalf("expected no findings, got %v", findingTypes(findings))
	}
}

func TestEvaluateNilTrendSuppressesTrendChecks(t *testing.T) {
	if findings := evalTemp(t, 80, nil); len(findings) != 0 {
		t.Fatalf("expected no findings, got %v", findingTypes(findings))
	}
}

func TestEvaluatePressureApproachingLowSide(t *testing.T) {
	e := &Evaluator{}
	rng := Range{Min: 1, Max: 10, Unit: "bar"}
	findings := e.Evaluate("asset-1", "Pump P1", models.MetricPressure, 1.05, nil, "bar", rng)
	requireSingle(t, findings, models.ThresholdApproaching, models.SeverityMedium)
}

func TestEvaluatePowerHasNoLowSideWarning(t *testing.T) {
	e := &Evaluator{}
	rng := Range{Min: 100, Max: 500, Unit: "kW"}
	// Near the minimum but in range: power only warns near the maximum.
	if findings := e.Evaluate("asset-1", "Boiler #1", models.MetricPower, 105, nil, "kW", rng); len(findings) != 0 {
		t.Fatalf("expected no findings, got %v", findingTypes(findings))
	}
}

func TestEvaluateProductionLowAndDeclining(t *testing.T) {
	e := &Evaluator{}
	rng := Range{Min: 50, Max: 200, Unit: "units/hr"}
	trend := 80.0
	findings := e.Evaluate("asset-1", "CNC Machine M1", models.MetricProduction, 55, &trend, "units/hr", rng)
	if len(findings) != 2 {
		t.Fatalf("got %v, want low_production plus declining_production", findingTypes(findings))
	}
	types := map[string]bool{}
	for _, f := range findings {
		types[f.ThresholdType] = true
	}
	if !types[models.ThresholdLowProduction] || !types[models.ThresholdDecliningTrend] {
		t.Fatalf("got %v", findingTypes(findings))
	}
}

func TestEvaluateContextCarriesInputs(t *testing.T) {
	trend := 100.0
	findings := evalTemp(t, 121, &trend)
	if len(findings) == 0 {
		t.Fatal("expected findings")
	}
	ctx := findings[0].Context
	if ctx["current_value"] != 121.0 || ctx["min_value"] != 60.0 || ctx["max_value"] != 120.0 {
		t.Fatalf("context values: %v", ctx)
	}
	if ctx["trend_value"] != 100.0 {
		t.Fatalf("trend missing from context: %v", ctx)
	}
}

func TestEvaluateUnknownMetricIgnored(t *testing.T) {
	e := &Evaluator{}
	if findings := e.Evaluate("asset-1", "X", "vibration", 9999, nil, "mm/s", Range{Min: 0, Max: 1}); len(findings) != 0 {
		t.Fatalf("expected no findings for unknown metric, got %v", findingTypes(findings))
	}
}
