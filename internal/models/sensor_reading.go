package models

import "time"

// Metric names produced by the ingestion job. Readings are append-only;
// the analysis cycle only reads recent windows.
const (
	MetricTemperature = "temperature"
	MetricPressure    = "pressure"
	MetricPower       = "power_consumption"
	MetricProduction  = "production_output"
)

type SensorReading struct {
	ID         string    `gorm:"primaryKey;type:uuid"`
	AssetID    string    `gorm:"type:uuid;not null;index:idx_readings_asset_metric_ts,priority:1"`
	MetricName string    `gorm:"type:varchar(100);not null;index:idx_readings_asset_metric_ts,priority:2"`
	Value      float64   `gorm:"not null"`
	Unit       string    `gorm:"type:varchar(50);not null"`
	Timestamp  time.Time `gorm:"type:timestamptz;not null;index:idx_readings_asset_metric_ts,priority:3"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (SensorReading) TableName() string {
	return "sensor_readings"
}
