package models

// Set represents a card set (expansion) mirrored from the external catalog,
// keyed by its catalog code.
type Set struct {
	Code        string `json:"code" gorm:"primaryKey;type:varchar(16)"`
	Name        string `json:"name" gorm:"index;not null"`
	ReleaseDate string `json:"release_date"`
	SetType     string `json:"set_type"`
	CardCount   int    `json:"card_count"`
	IconURL     string `json:"icon_url"`
}

// Color is one of the five fixed card colors. The enumeration is seeded once
// at startup and by every sync run; rows are never deleted.
type Color struct {
	Code string `json:"code" gorm:"primaryKey;type:varchar(1)"`
	Name string `json:"name" gorm:"not null"`
}

// ColorEnum is the fixed set of colors known to the application.
var ColorEnum = []Color{
	{Code: "W", Name: "White"},
	{Code: "U", Name: "Blue"},
	{Code: "B", Name: "Black"},
	{Code: "R", Name: "Red"},
	{Code: "G", Name: "Green"},
}
