package models

type Tag struct {
	ID    int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name  string `json:"name" gorm:"uniqueIndex;size:200;not null"`
	Color string `json:"color" gorm:"uniqueIndex;size:7;not null"`
	Slug  string `json:"slug" gorm:"uniqueIndex;size:200;not null"`
}

func (Tag) TableName() string {
	return "tags"
}
