package models

// Ingredient is a catalog entry, shared by every recipe that uses it.
type Ingredient struct {
	ID              int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name            string `json:"name" gorm:"size:200;not null;index"`
	MeasurementUnit string `json:"measurement_unit" gorm:"size:200;not null"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}
