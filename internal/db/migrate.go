package db

import (
	"plantmonitor/internal/models"
)

// activeInsightIndex enforces "at most one active insight per identity key".
// A NULL asset_id is coalesced to the nil UUID so facility-level insights
// fall under the same constraint. Partial indexes are not expressible with
// gorm tags, hence raw SQL.
const activeInsightIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_insights_active_identity
ON operational_insights (facility_id, metric_name, threshold_type,
	COALESCE(asset_id, '00000000-0000-0000-0000-000000000000'::uuid))
WHERE is_active = true`

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	if err := db.Gorm.AutoMigrate(
		&models.Facility{},
		&models.Asset{},
		&models.SensorReading{},
		&models.OperationalRange{},
		&models.Insight{},
	); err != nil {
		return err
	}
	return db.Gorm.Exec(activeInsightIndex).Error
}
