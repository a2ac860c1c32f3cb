package models

import "time"

// Vote records one user's choice in one division of one bracket. The
// unique index over (user_id, bracket_id, division_id) is what makes a
// concurrent double-cast race collapse into AlreadyVoted instead of a
// corrupted tally.
type Vote struct {
	ID         uint      `gorm:"primary_key;autoIncrement" json:"id"`
	UserID     uint      `gorm:"not null;index;uniqueIndex:idx_vote_user_bracket_division" json:"user_id"`
	BracketID  uint      `gorm:"not null;index;uniqueIndex:idx_vote_user_bracket_division" json:"bracket_id"`
	DivisionID int       `gorm:"not null;uniqueIndex:idx_vote_user_bracket_division" json:"division_id"`
	WaifuID    uint      `gorm:"not null;index" json:"waifu_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
