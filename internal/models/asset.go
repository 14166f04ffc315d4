package models

import "time"

const (
	AssetStatusOperational = "operational"
	AssetStatusMaintenance = "maintenance"
)

type Asset struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	FacilityID string `gorm:"type:uuid;not null;index"`
	Name       string `gorm:"type:varchar(255);not null"`
	Type       string `gorm:"type:varchar(100);not null"`
	Status     string `gorm:"type:varchar(50);not null;default:'operational';index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Asset) TableName() string {
	return "assets"
}
