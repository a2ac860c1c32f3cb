package models

import (
	"sort"
	"strings"

	"gorm.io/gorm"
)

// likePattern wraps a lowercased query for substring LIKE matching,
// escaping the pattern metacharacters first.
func likePattern(query string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	return "%" + escaped + "%"
}

// ResolveWaifu maps a free-text query to exactly one waifu. It substring
// matches names and waifu aliases case-insensitively and unions the
// candidate sets; anything other than a single hit is a typed failure. Note
// that an exact alias hit does not shortcut the search: "rei" still clashes
// with "Reiko" even when an alias "Rei" exists.
func ResolveWaifu(db *gorm.DB, query string) (*Waifu, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, &NoMatchError{Query: query}
	}
	pattern := likePattern(q)

	ids := map[uint]struct{}{}

	byName := []Waifu{}
	err := db.Where("name_key LIKE ? ESCAPE '\\'", pattern).Find(&byName).Error
	if err != nil {
		return nil, err
	}
	for _, w := range byName {
		ids[w.ID] = struct{}{}
	}

	byAlias := []Alias{}
	err = db.Where("kind = ? AND alias_key LIKE ? ESCAPE '\\'", AliasKindWaifu, pattern).
		Find(&byAlias).Error
	if err != nil {
		return nil, err
	}
	for _, a := range byAlias {
		if a.WaifuID != nil {
			ids[*a.WaifuID] = struct{}{}
		}
	}

	switch len(ids) {
	case 0:
		return nil, &NoMatchError{Query: query}
	case 1:
		for id := range ids {
			return (&Waifu{}).FindWaifuByID(db, id)
		}
	}

	idList := make([]uint, 0, len(ids))
	for id := range ids {
		idList = append(idList, id)
	}
	sort.Slice(idList, func(i, j int) bool { return idList[i] < idList[j] })

	candidates := []Waifu{}
	if err := db.Where("id IN ?", idList).Order("id ASC").Find(&candidates).Error; err != nil {
		return nil, err
	}
	return nil, &AmbiguousMatchError{Query: query, Candidates: candidates}
}

// ResolveSourceWork runs the same algorithm over the distinct source-work
// titles and their aliases, returning the canonical title on a unique match.
func ResolveSourceWork(db *gorm.DB, query string) (string, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", &NoMatchError{Query: query}
	}
	pattern := likePattern(q)

	// Canonical title keyed by its lowercase form to dedupe across casings.
	works := map[string]string{}

	titles := []string{}
	err := db.Model(&Waifu{}).
		Distinct("source_work").
		Where("source_work <> '' AND lower(source_work) LIKE ? ESCAPE '\\'", pattern).
		Pluck("source_work", &titles).Error
	if err != nil {
		return "", err
	}
	for _, t := range titles {
		works[strings.ToLower(t)] = t
	}

	byAlias := []Alias{}
	err = db.Where("kind = ? AND alias_key LIKE ? ESCAPE '\\'", AliasKindSourceWork, pattern).
		Find(&byAlias).Error
	if err != nil {
		return "", err
	}
	for _, a := range byAlias {
		works[strings.ToLower(a.SourceWork)] = a.SourceWork
	}

	switch len(works) {
	case 0:
		return "", &NoMatchError{Query: query}
	case 1:
		for _, title := range works {
			return title, nil
		}
	}

	candidates := make([]string, 0, len(works))
	for _, title := range works {
		candidates = append(candidates, title)
	}
	sort.Strings(candidates)
	return "", &AmbiguousSourceWorkError{Query: query, Candidates: candidates}
}
