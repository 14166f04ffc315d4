package models

import "time"

type Facility struct {
	ID       string `gorm:"primaryKey;type:uuid"`
	Name     string `gorm:"type:varchar(255);not null"`
	Location string `gorm:"type:varchar(255);not null"`
	Type     string `gorm:"type:varchar(100);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Facility) TableName() string {
	return "facilities"
}
