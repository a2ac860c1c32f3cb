package models

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"WaifuBracket/engine"

	"gorm.io/gorm"
)

// Bracket statuses. LOCKED is a suspend state: it blocks every mutation and
// vote but remembers where to resume.
const (
	StatusOpen    = "open"
	StatusVotable = "votable"
	StatusLocked  = "locked"
	StatusClosed  = "closed"
)

// Advance modes. Manual rounds wait for an explicit finish; timer rounds
// carry a deadline the scheduler enforces.
const (
	AdvanceManual = "manual"
	AdvanceTimer  = "timer"
)

// GlobalBracketID is the synthetic read-only bracket spanning the whole
// registry. It is never stored and never votable.
const GlobalBracketID uint = 0

const defaultRoundDurationSeconds = 86400

// Bracket is one tournament instance scoped to a community.
type Bracket struct {
	ID   uint   `gorm:"primary_key;autoIncrement" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`

	Owner   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"owner"`
	OwnerID uint `gorm:"not null;index" json:"owner_id"`

	CommunityID string `gorm:"size:64;not null;index" json:"community_id"`
	Status      string `gorm:"size:20;not null;default:'open'" json:"status"`
	// PriorStatus is only set while locked; Unlock resumes into it.
	PriorStatus string `gorm:"size:20" json:"prior_status,omitempty"`
	Round       int    `gorm:"default:1" json:"round"`

	AdvanceMode          string     `gorm:"size:20;not null;default:'manual'" json:"advance_mode"`
	RoundDurationSeconds int        `gorm:"default:0" json:"round_duration_seconds"`
	RoundStartedAt       *time.Time `json:"round_started_at,omitempty"`
	RoundEndsAt          *time.Time `json:"round_ends_at,omitempty"`

	Entries []BracketEntry `gorm:"foreignKey:BracketID" json:"entries"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (b *Bracket) Prepare() {
	b.Name = html.EscapeString(strings.TrimSpace(b.Name))
	b.CommunityID = strings.TrimSpace(b.CommunityID)
	b.Owner = User{}
	b.CreatedAt = time.Now()
	b.UpdatedAt = time.Now()

	if b.Status == "" {
		b.Status = StatusOpen
	}
	if b.Round == 0 {
		b.Round = 1
	}
	if b.AdvanceMode == "" {
		b.AdvanceMode = AdvanceManual
	}
	if b.AdvanceMode == AdvanceTimer && b.RoundDurationSeconds <= 0 {
		b.RoundDurationSeconds = defaultRoundDurationSeconds
	}
}

func (b *Bracket) Validate() map[string]string {
	errorMessages := make(map[string]string)

	if b.Name == "" {
		errorMessages["Required_name"] = "Required Name"
	}
	if b.OwnerID == 0 {
		errorMessages["Required_owner"] = "Required Owner"
	}
	if b.CommunityID == "" {
		errorMessages["Required_community"] = "Required Community"
	}
	if b.AdvanceMode != AdvanceManual && b.AdvanceMode != AdvanceTimer {
		errorMessages["Invalid_advance_mode"] = "Advance mode must be manual or timer"
	}
	return errorMessages
}

//
// ===============================
// BRACKET REGISTRY
// ===============================
//

// SaveBracket creates a new bracket, always OPEN.
func (b *Bracket) SaveBracket(db *gorm.DB) (*Bracket, error) {
	b.Status = StatusOpen
	if err := db.Create(b).Error; err != nil {
		return nil, err
	}
	if err := db.Model(b).Association("Owner").Find(&b.Owner); err != nil {
		return nil, err
	}
	return b, nil
}

// FindBracketByID retrieves a bracket with its entries in rank order.
func (b *Bracket) FindBracketByID(db *gorm.DB, id uint) (*Bracket, error) {
	err := db.
		Preload("Owner").
		Preload("Entries", func(tx *gorm.DB) *gorm.DB { return tx.Order("rank ASC") }).
		Preload("Entries.Waifu").
		Where("id = ?", id).
		First(b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownBracket
		}
		return nil, err
	}
	return b, nil
}

// FindCommunityBrackets lists a community's brackets, newest first.
func (b *Bracket) FindCommunityBrackets(db *gorm.DB, communityID string) ([]Bracket, error) {
	brackets := []Bracket{}
	err := db.Preload("Owner").
		Where("community_id = ?", communityID).
		Order("created_at DESC").
		Find(&brackets).Error
	if err != nil {
		return nil, err
	}
	return brackets, nil
}

// FindBracketByName resolves a partial, case-insensitive name within one
// community. Zero and many matches are typed failures carrying enough for
// the caller to show a disambiguation list.
func (b *Bracket) FindBracketByName(db *gorm.DB, communityID, partial string) (*Bracket, error) {
	query := strings.ToLower(strings.TrimSpace(partial))
	if query == "" {
		return nil, &UnknownBracketNameError{Query: partial}
	}

	candidates := []Bracket{}
	err := db.
		Where("community_id = ? AND lower(name) LIKE ? ESCAPE '\\'", communityID, likePattern(query)).
		Order("id ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	switch len(candidates) {
	case 0:
		return nil, &UnknownBracketNameError{Query: partial}
	case 1:
		return b.FindBracketByID(db, candidates[0].ID)
	default:
		return nil, &TooManyBracketMatchesError{Query: partial, Candidates: candidates}
	}
}

// VotingBracket returns the community's single votable bracket, or nil when
// no vote is running. This is the lookup StartVote consults to enforce the
// one-active-vote-per-community invariant.
func VotingBracket(db *gorm.DB, communityID string) (*Bracket, error) {
	var bracket Bracket
	err := db.Where("community_id = ? AND status = ?", communityID, StatusVotable).
		First(&bracket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bracket, nil
}

//
// ===============================
// ENTRY MANAGEMENT (OPEN only)
// ===============================
//

func (b *Bracket) loadEntries(db *gorm.DB) ([]BracketEntry, error) {
	entries := []BracketEntry{}
	err := db.Where("bracket_id = ?", b.ID).Order("rank ASC").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (b *Bracket) entryByWaifu(db *gorm.DB, waifuID uint) (*BracketEntry, error) {
	var entry BracketEntry
	err := db.Where("bracket_id = ? AND waifu_id = ?", b.ID, waifuID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// AddEntry appends a waifu to the bracket at the next free rank.
func (b *Bracket) AddEntry(db *gorm.DB, waifuID uint) (*BracketEntry, error) {
	if b.ID == GlobalBracketID {
		return nil, ErrGlobalReadOnly
	}
	if b.Status != StatusOpen {
		return nil, &NotOpenError{Status: b.Status}
	}
	if _, err := (&Waifu{}).FindWaifuByID(db, waifuID); err != nil {
		return nil, err
	}
	if _, err := b.entryByWaifu(db, waifuID); err == nil {
		return nil, &AlreadyInBracketError{WaifuID: waifuID}
	} else if !errors.Is(err, ErrEntryNotFound) {
		return nil, err
	}

	var maxRank int
	err := db.Model(&BracketEntry{}).
		Where("bracket_id = ?", b.ID).
		Select("COALESCE(MAX(rank), 0)").
		Scan(&maxRank).Error
	if err != nil {
		return nil, err
	}

	entry := BracketEntry{BracketID: b.ID, WaifuID: waifuID, Rank: maxRank + 1}
	if err := db.Create(&entry).Error; err != nil {
		// A concurrent add of the same waifu trips the unique index.
		if _, lookupErr := b.entryByWaifu(db, waifuID); lookupErr == nil {
			return nil, &AlreadyInBracketError{WaifuID: waifuID}
		}
		return nil, err
	}
	if err := db.Preload("Waifu").First(&entry, entry.ID).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// RemoveEntry drops a waifu from the bracket. Rank gaps are harmless here:
// ranks only become normative after the start-vote reshuffle.
func (b *Bracket) RemoveEntry(db *gorm.DB, waifuID uint) error {
	if b.ID == GlobalBracketID {
		return ErrGlobalReadOnly
	}
	if b.Status != StatusOpen {
		return &NotOpenError{Status: b.Status}
	}
	entry, err := b.entryByWaifu(db, waifuID)
	if err != nil {
		return err
	}
	return db.Delete(&BracketEntry{}, entry.ID).Error
}

//
// ===============================
// STATE MACHINE
// ===============================
//

// powerOfTwoBounds reports the nearest legal bracket sizes around n. Lower
// never drops below the two-entry minimum: a one-entry bracket has no
// division to vote in.
func powerOfTwoBounds(n int) (lower, higher int) {
	lower, higher = 2, 2
	for p := 2; p <= n; p *= 2 {
		lower = p
	}
	for higher <= n {
		higher *= 2
	}
	return lower, higher
}

// StartVote seeds ranks with a uniform shuffle, clears any stale votes and
// transitions OPEN to VOTABLE. Only one bracket per community may collect
// votes at a time; the loser of that race gets AnotherBracketVoting.
func (b *Bracket) StartVote(db *gorm.DB, rng engine.Rand) error {
	mu := communityLock(b.CommunityID)
	mu.Lock()
	defer mu.Unlock()

	if b.Status != StatusOpen {
		return &NotOpenError{Status: b.Status}
	}
	other, err := VotingBracket(db, b.CommunityID)
	if err != nil {
		return err
	}
	if other != nil && other.ID != b.ID {
		return &AnotherBracketVotingError{OtherBracketID: other.ID}
	}

	entries, err := b.loadEntries(db)
	if err != nil {
		return err
	}
	n := len(entries)
	if n < 2 || n&(n-1) != 0 {
		lower, higher := powerOfTwoBounds(n)
		return &NotPowerOfTwoError{Count: n, Lower: lower, Higher: higher}
	}

	rng.Shuffle(n, func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })

	now := time.Now()
	err = db.Transaction(func(tx *gorm.DB) error {
		for i := range entries {
			err := tx.Model(&BracketEntry{}).
				Where("id = ?", entries[i].ID).
				Updates(map[string]interface{}{"rank": i + 1, "vote_count": 0}).Error
			if err != nil {
				return err
			}
		}
		if err := tx.Where("bracket_id = ?", b.ID).Delete(&Vote{}).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":       StatusVotable,
			"prior_status": "",
			"updated_at":   now,
		}
		if b.AdvanceMode == AdvanceTimer {
			if b.RoundDurationSeconds <= 0 {
				b.RoundDurationSeconds = defaultRoundDurationSeconds
				updates["round_duration_seconds"] = b.RoundDurationSeconds
			}
			end := now.Add(time.Duration(b.RoundDurationSeconds) * time.Second)
			updates["round_started_at"] = now
			updates["round_ends_at"] = end
		}
		return tx.Model(&Bracket{}).Where("id = ?", b.ID).Updates(updates).Error
	})
	if err != nil {
		return err
	}
	_, err = b.FindBracketByID(db, b.ID)
	return err
}

// CastVote records one user's choice in the division their pick belongs to.
// Voting twice in a division is an informative no-op, never an overwrite.
func (b *Bracket) CastVote(db *gorm.DB, userID, waifuID uint) (*Vote, error) {
	if b.Status != StatusVotable {
		return nil, ErrNotVotable
	}
	entry, err := b.entryByWaifu(db, waifuID)
	if err != nil {
		return nil, err
	}
	division := entry.Division()

	vote := Vote{UserID: userID, BracketID: b.ID, DivisionID: division, WaifuID: waifuID}
	err = db.Transaction(func(tx *gorm.DB) error {
		var existing Vote
		err := tx.Where("user_id = ? AND bracket_id = ? AND division_id = ?",
			userID, b.ID, division).First(&existing).Error
		if err == nil {
			return &AlreadyVotedError{Division: division, ChosenWaifuID: existing.WaifuID}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&vote).Error; err != nil {
			// Lost a race to the unique index; report the winning choice.
			var raced Vote
			lookupErr := tx.Where("user_id = ? AND bracket_id = ? AND division_id = ?",
				userID, b.ID, division).First(&raced).Error
			if lookupErr == nil {
				return &AlreadyVotedError{Division: division, ChosenWaifuID: raced.WaifuID}
			}
			return err
		}
		return tx.Model(&BracketEntry{}).
			Where("id = ?", entry.ID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// RetractVote deletes the user's vote for the given waifu and restores the
// tally, freeing the division for a new choice.
func (b *Bracket) RetractVote(db *gorm.DB, userID, waifuID uint) error {
	if b.Status != StatusVotable {
		return ErrNotVotable
	}
	entry, err := b.entryByWaifu(db, waifuID)
	if err != nil {
		return err
	}
	division := entry.Division()

	return db.Transaction(func(tx *gorm.DB) error {
		var existing Vote
		err := tx.Where("user_id = ? AND bracket_id = ? AND division_id = ?",
			userID, b.ID, division).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoVoteToRetract
		}
		if err != nil {
			return err
		}
		if existing.WaifuID != waifuID {
			return ErrNoVoteToRetract
		}
		if err := tx.Delete(&Vote{}, existing.ID).Error; err != nil {
			return err
		}
		return tx.Model(&BracketEntry{}).
			Where("id = ?", entry.ID).
			UpdateColumn("vote_count", gorm.Expr("vote_count - ?", 1)).Error
	})
}

// FindUserVotes lists a user's live votes in this bracket, one per division.
func (b *Bracket) FindUserVotes(db *gorm.DB, userID uint) ([]Vote, error) {
	votes := []Vote{}
	err := db.Where("user_id = ? AND bracket_id = ?", userID, b.ID).
		Order("division_id ASC").Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

// Lock suspends the bracket, remembering the status to resume into.
func (b *Bracket) Lock(db *gorm.DB) error {
	switch b.Status {
	case StatusLocked:
		return ErrAlreadyLocked
	case StatusClosed:
		return ErrBracketClosed
	}
	err := db.Model(&Bracket{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
		"status":       StatusLocked,
		"prior_status": b.Status,
		"updated_at":   time.Now(),
	}).Error
	if err != nil {
		return err
	}
	b.PriorStatus = b.Status
	b.Status = StatusLocked
	return nil
}

// Unlock resumes a locked bracket into its prior status. Resuming into
// VOTABLE re-checks the community's voting slot: another bracket may have
// started collecting votes while this one was locked.
func (b *Bracket) Unlock(db *gorm.DB) error {
	mu := communityLock(b.CommunityID)
	mu.Lock()
	defer mu.Unlock()

	if b.Status != StatusLocked {
		return ErrNotLocked
	}
	resume := b.PriorStatus
	if resume == "" {
		resume = StatusOpen
	}
	if resume == StatusVotable {
		other, err := VotingBracket(db, b.CommunityID)
		if err != nil {
			return err
		}
		if other != nil && other.ID != b.ID {
			return &AnotherBracketVotingError{OtherBracketID: other.ID}
		}
	}
	err := db.Model(&Bracket{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
		"status":       resume,
		"prior_status": "",
		"updated_at":   time.Now(),
	}).Error
	if err != nil {
		return err
	}
	b.Status = resume
	b.PriorStatus = ""
	return nil
}

// Close forces CLOSED from any state. Administrative override; no guard.
func (b *Bracket) Close(db *gorm.DB) error {
	err := db.Model(&Bracket{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
		"status":       StatusClosed,
		"prior_status": "",
		"updated_at":   time.Now(),
	}).Error
	if err != nil {
		return err
	}
	b.Status = StatusClosed
	b.PriorStatus = ""
	return nil
}

//
// ===============================
// ROUND COLLAPSE
// ===============================
//

// RoundResult is what collapsing a round produced: either the tournament's
// final winner or the next round's bracket, plus which divisions needed a
// coin flip.
type RoundResult struct {
	Final     bool     `json:"final"`
	Winner    *Waifu   `json:"winner,omitempty"`
	Next      *Bracket `json:"next,omitempty"`
	TieBreaks []int    `json:"tie_breaks,omitempty"`
	Closed    uint     `json:"closed_bracket_id"`
}

var roundSuffix = regexp.MustCompile(`\s*\(round \d+\)$`)

func nextRoundName(name string, round int) string {
	base := roundSuffix.ReplaceAllString(name, "")
	return fmt.Sprintf("%s (round %d)", base, round)
}

// FinishRound collapses every division of a votable bracket. The source
// bracket is closed; unless a single winner remains, the winners are seeded
// in division order into a fresh OPEN bracket awaiting its own StartVote.
func (b *Bracket) FinishRound(db *gorm.DB, rng engine.Rand) (*RoundResult, error) {
	mu := communityLock(b.CommunityID)
	mu.Lock()
	defer mu.Unlock()

	if b.Status != StatusVotable {
		return nil, ErrNotVotable
	}
	entries, err := b.loadEntries(db)
	if err != nil {
		return nil, err
	}
	entrants := make([]engine.Entrant, 0, len(entries))
	for i := range entries {
		entrants = append(entrants, entries[i].Entrant())
	}
	outcome, err := engine.AdvanceRound(rng, entrants)
	if err != nil {
		return nil, err
	}

	result := &RoundResult{TieBreaks: outcome.TieBreaks, Closed: b.ID}
	err = db.Transaction(func(tx *gorm.DB) error {
		closeUpdates := map[string]interface{}{
			"status":       StatusClosed,
			"prior_status": "",
			"updated_at":   time.Now(),
		}
		if err := tx.Model(&Bracket{}).Where("id = ?", b.ID).Updates(closeUpdates).Error; err != nil {
			return err
		}

		if outcome.Final {
			winner := Waifu{}
			if _, err := winner.FindWaifuByID(tx, outcome.Winners[0].WaifuID); err != nil {
				return err
			}
			result.Final = true
			result.Winner = &winner
			return nil
		}

		next := Bracket{
			Name:                 nextRoundName(b.Name, b.Round+1),
			OwnerID:              b.OwnerID,
			CommunityID:          b.CommunityID,
			Status:               StatusOpen,
			Round:                b.Round + 1,
			AdvanceMode:          b.AdvanceMode,
			RoundDurationSeconds: b.RoundDurationSeconds,
		}
		if err := tx.Create(&next).Error; err != nil {
			return err
		}
		for _, winner := range outcome.Winners {
			entry := BracketEntry{
				BracketID: next.ID,
				WaifuID:   winner.WaifuID,
				Rank:      winner.Rank,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		result.Next = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.Status = StatusClosed
	b.PriorStatus = ""
	if result.Next != nil {
		if _, err := result.Next.FindBracketByID(db, result.Next.ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

//
// ===============================
// GLOBAL BRACKET
// ===============================
//

// GlobalBracket assembles the synthetic bracket over the entire registry.
// It is the default search scope when no community bracket is named; it is
// never votable and owns no real votes.
func GlobalBracket(db *gorm.DB) (*Bracket, error) {
	waifus, err := (&Waifu{}).FindAllWaifus(db)
	if err != nil {
		return nil, err
	}
	entries := make([]BracketEntry, 0, len(waifus))
	for i, w := range waifus {
		entries = append(entries, BracketEntry{
			BracketID: GlobalBracketID,
			WaifuID:   w.ID,
			Rank:      i + 1,
			Waifu:     w,
		})
	}
	return &Bracket{
		ID:      GlobalBracketID,
		Name:    "global registry",
		Status:  StatusClosed,
		Entries: entries,
	}, nil
}
