package models

import "time"

// OperationalRange is the configured acceptable band for one asset/metric.
// Read-only to the analysis cycle.
type OperationalRange struct {
	ID         string  `gorm:"primaryKey;type:uuid"`
	AssetID    string  `gorm:"type:uuid;not null;uniqueIndex:idx_ranges_asset_metric,priority:1"`
	MetricName string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_ranges_asset_metric,priority:2"`
	MinValue   float64 `gorm:"not null"`
	MaxValue   float64 `gorm:"not null"`
	Unit       string  `gorm:"type:varchar(50);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (OperationalRange) TableName() string {
	return "asset_operational_ranges"
}
