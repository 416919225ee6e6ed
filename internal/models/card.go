package models

// Card represents a single printing of a card mirrored from the external catalog.
// The ID is the catalog's own identifier and never changes; everything else is
// overwritten on each synchronization pass.
type Card struct {
	ID            string  `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name          string  `json:"name" gorm:"index;not null"`
	ManaCost      string  `json:"mana_cost"`
	Cmc           float64 `json:"cmc"`
	Type          string  `json:"type" gorm:"index"`
	Rarity        string  `json:"rarity" gorm:"index"`
	Text          string  `json:"text" gorm:"type:text"`
	SetCode       string  `json:"set_code" gorm:"index"`
	SetName       string  `json:"set_name" gorm:"index"`
	ImageURL      string  `json:"image_url"`
	ImageURLSmall string  `json:"image_url_small"`
	Colors        []Color `json:"colors" gorm:"many2many:card_colors;"`
}
