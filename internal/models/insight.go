package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ThresholdOutOfRange     = "out_of_range"
	ThresholdApproaching    = "approaching_limit"
	ThresholdElevated       = "elevated"
	ThresholdRisingTrend    = "rising_trend"
	ThresholdDecliningTrend = "declining_production"
	ThresholdLowProduction  = "low_production"
)

const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Insight is the persisted lifecycle record of one detected condition.
// At most one active row exists per (facility, asset-or-null, metric,
// threshold_type); the partial unique index enforcing that lives in
// db.AutoMigrate since gorm tags cannot express it.
type Insight struct {
	ID            string  `gorm:"primaryKey;type:uuid"`
	FacilityID    string  `gorm:"type:uuid;not null;index"`
	AssetID       *string `gorm:"type:uuid;index"`
	MetricName    string  `gorm:"type:varchar(100);not null"`
	ThresholdType string  `gorm:"type:varchar(50);not null"`
	Severity      string  `gorm:"type:varchar(20);not null"`
	Title         string  `gorm:"type:varchar(255);not null"`
	Description   string  `gorm:"type:text;not null"`

	// Context snapshots the inputs at detection time (current value, trend,
	// configured bounds, unit) for dashboard drill-down.
	Context datatypes.JSON `gorm:"type:jsonb"`

	IsActive   bool       `gorm:"not null;default:true;index"`
	DetectedAt time.Time  `gorm:"type:timestamptz;not null"`
	ResolvedAt *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Insight) TableName() string {
	return "operational_insights"
}

// SeverityRank orders severities for display: high first, unknown last.
func SeverityRank(severity string) int {
	switch severity {
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}
