package models

// Alias kinds. Waifu aliases point at a registry row; source-work aliases
// carry the canonical work title, which is not a table of its own.
const (
	AliasKindWaifu      = "waifu"
	AliasKindSourceWork = "source_work"
)

// Alias is an alternative search name. AliasKey is the lowercased form and
// is unique across the whole registry regardless of kind.
type Alias struct {
	ID         uint   `gorm:"primary_key;autoIncrement" json:"id"`
	Alias      string `gorm:"size:255;not null" json:"alias"`
	AliasKey   string `gorm:"size:255;not null;uniqueIndex" json:"-"`
	Kind       string `gorm:"size:20;not null" json:"kind"`
	WaifuID    *uint  `gorm:"index" json:"waifu_id,omitempty"`
	SourceWork string `gorm:"size:255" json:"source_work,omitempty"`
}

func (Alias) TableName() string {
	return "aliases"
}
