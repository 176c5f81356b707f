package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Справочник госзаказчиков (агентств), публикующих возможности.
type Agency struct {
	gorm.Model
	Name         string `gorm:"size:255;not null"`
	Abbreviation string `gorm:"size:20;uniqueIndex;not null"` // DoD, GSA, DHS и т.п.
	Description  string `gorm:"type:text"`
	Website      string `gorm:"size:255"`
	ContactInfo  datatypes.JSONMap
}

// Коды NAICS для фильтрации возможностей.
type NAICSCode struct {
	gorm.Model
	Code  string `gorm:"size:10;uniqueIndex;not null"`
	Title string `gorm:"size:255;not null"`
	Level int    `gorm:"default:1"` // 2..6 знаков
}
