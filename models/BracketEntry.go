package models

import "WaifuBracket/engine"

// BracketEntry ties one waifu into one bracket at a rank. Ranks are
// assigned on append, reshuffled when voting starts, and reassigned on
// round collapse; entries hold a reference to the registry row, never a
// copy of it.
type BracketEntry struct {
	ID        uint `gorm:"primary_key;autoIncrement" json:"id"`
	BracketID uint `gorm:"not null;index;uniqueIndex:idx_bracket_entry_waifu" json:"bracket_id"`
	WaifuID   uint `gorm:"not null;index;uniqueIndex:idx_bracket_entry_waifu" json:"waifu_id"`
	Rank      int  `gorm:"not null" json:"rank"`
	// VoteCount is denormalized from the votes table and only meaningful
	// while the bracket is votable.
	VoteCount int `gorm:"not null;default:0" json:"vote_count"`

	Waifu Waifu `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"waifu"`
}

// Division derives the matchup this entry belongs to: division k pairs
// ranks 2k-1 and 2k.
func (e *BracketEntry) Division() int {
	return (e.Rank + 1) / 2
}

// Entrant converts the entry into the pairing engine's storage-free shape.
func (e *BracketEntry) Entrant() engine.Entrant {
	return engine.Entrant{
		EntryID: e.ID,
		WaifuID: e.WaifuID,
		Rank:    e.Rank,
		Votes:   e.VoteCount,
	}
}
