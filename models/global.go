package models

import (
	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

// WaifuUsage is one row of the global aggregation view: how often a
// registry entry has been fielded and how many votes it gathered across
// every bracket ever run. Derived on demand, never stored.
type WaifuUsage struct {
	WaifuID      uint   `json:"waifu_id"`
	Name         string `json:"name"`
	SourceWork   string `json:"source_work"`
	BracketCount int64  `json:"bracket_count"`
	TotalVotes   int64  `json:"total_votes"`
}

// GlobalUsage rolls up entry usage and vote totals per waifu, most voted
// first.
func GlobalUsage(db *gorm.DB) ([]WaifuUsage, error) {
	query, args, err := sq.Select(
		"w.id AS waifu_id",
		"w.name",
		"w.source_work",
		"(SELECT COUNT(*) FROM bracket_entries e WHERE e.waifu_id = w.id) AS bracket_count",
		"(SELECT COUNT(*) FROM votes v WHERE v.waifu_id = w.id) AS total_votes",
	).
		From("waifus w").
		OrderBy("total_votes DESC", "bracket_count DESC", "waifu_id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	usage := []WaifuUsage{}
	if err := db.Raw(query, args...).Scan(&usage).Error; err != nil {
		return nil, err
	}
	return usage, nil
}
