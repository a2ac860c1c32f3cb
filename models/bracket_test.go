package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createRoster(t *testing.T, db *gorm.DB, n int) []*Waifu {
	t.Helper()

	waifus := make([]*Waifu, 0, n)
	for i := 0; i < n; i++ {
		w := createWaifu(t, db, fmt.Sprintf("Contender %02d", i+1), "Test Arena")
		waifus = append(waifus, w)
	}
	return waifus
}

func fillBracket(t *testing.T, db *gorm.DB, b *Bracket, waifus []*Waifu) {
	t.Helper()

	for _, w := range waifus {
		_, err := b.AddEntry(db, w.ID)
		require.NoError(t, err)
	}
}

func TestAddEntry(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	b := createBracket(t, db, owner, "g1", "Season One")
	waifus := createRoster(t, db, 2)

	entry, err := b.AddEntry(db, waifus[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Rank)
	assert.Equal(t, waifus[0].ID, entry.Waifu.ID)

	entry, err = b.AddEntry(db, waifus[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Rank)

	_, err = b.AddEntry(db, waifus[0].ID)
	var dup *AlreadyInBracketError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, waifus[0].ID, dup.WaifuID)

	_, err = b.AddEntry(db, 9999)
	assert.ErrorIs(t, err, ErrUnknownWaifu)
}

func TestRemoveEntry(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	b := createBracket(t, db, owner, "g1", "Season One")
	waifus := createRoster(t, db, 3)
	fillBracket(t, db, b, waifus)

	require.NoError(t, b.RemoveEntry(db, waifus[1].ID))
	assert.ErrorIs(t, b.RemoveEntry(db, waifus[1].ID), ErrEntryNotFound)

	// Rank gaps persist until the start-vote reshuffle.
	entries, err := b.loadEntries(db)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 3, entries[1].Rank)
}

func TestEntryMutationOnlyWhileOpen(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	b := createBracket(t, db, owner, "g1", "Season One")
	waifus := createRoster(t, db, 3)
	fillBracket(t, db, b, waifus[:2])

	require.NoError(t, b.StartVote(db, &stubRand{}))

	var notOpen *NotOpenError
	_, err := b.AddEntry(db, waifus[2].ID)
	require.ErrorAs(t, err, &notOpen)
	assert.Equal(t, StatusVotable, notOpen.Status)

	err = b.RemoveEntry(db, waifus[0].ID)
	require.ErrorAs(t, err, &notOpen)
}

func TestStartVoteRequiresPowerOfTwo(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	waifus := createRoster(t, db, 16)

	for _, count := range []int{0, 1, 3, 5, 6, 7} {
		b := createBracket(t, db, owner, fmt.Sprintf("bad-%d", count), "Season One")
		fillBracket(t, db, b, waifus[:count])

		err := b.StartVote(db, &stubRand{})
		var sizeErr *NotPowerOfTwoError
		require.ErrorAs(t, err, &sizeErr, "count %d", count)
		assert.Equal(t, count, sizeErr.Count)
		assert.Equal(t, StatusOpen, b.Status, "count %d", count)
	}

	for _, count := range []int{2, 4, 8, 16} {
		b := createBracket(t, db, owner, fmt.Sprintf("ok-%d", count), "Season One")
		fillBracket(t, db, b, waifus[:count])

		require.NoError(t, b.StartVote(db, &stubRand{}), "count %d", count)
		assert.Equal(t, StatusVotable, b.Status)
	}
}

func TestStartVoteReportsNearestSizes(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	waifus := createRoster(t, db, 5)
	b := createBracket(t, db, owner, "g1", "Season One")
	fillBracket(t, db, b, waifus)

	err := b.StartVote(db, &stubRand{})
	var sizeErr *NotPowerOfTwoError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, 5, sizeErr.Count)
	assert.Equal(t, 4, sizeErr.Lower)
	assert.Equal(t, 8, sizeErr.Higher)

	// One entry has no lower legal size to shrink to; the minimum is the
	// two-entry bracket.
	solo := createBracket(t, db, owner, "g2", "Solo")
	fillBracket(t, db, solo, waifus[:1])
	err = solo.StartVote(db, &stubRand{})
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, 1, sizeErr.Count)
	assert.Equal(t, 2, sizeErr.Lower)
	assert.Equal(t, 2, sizeErr.Higher)
	assert.Equal(t, StatusOpen, solo.Status)
}

func TestStartVoteReseedsRanksAndClearsVotes(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	waifus := createRoster(t, db, 4)
	b := createBracket(t, db, owner, "g1", "Season One")
	fillBracket(t, db, b, waifus)

	// Leave a gap so the reshuffle has something to repair.
	require.NoError(t, b.RemoveEntry(db, waifus[1].ID))
	extra := createWaifu(t, db, "Late Arrival", "Test Arena")
	_, err := b.AddEntry(db, extra.ID)
	require.NoError(t, err)

	require.NoError(t, b.StartVote(db, &stubRand{}))

	require.Len(t, b.Entries, 4)
	for i, entry := range b.Entries {
		assert.Equal(t, i+1, entry.Rank)
		assert.Zero(t, entry.VoteCount)
	}
}

func TestStartVoteOnePerCommunity(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	waifus := createRoster(t, db, 4)

	first := createBracket(t, db, owner, "g1", "Season One")
	fillBracket(t, db, first, waifus[:2])
	second := createBracket(t, db, owner, "g1", "Season Two")
	fillBracket(t, db, second, waifus[2:])
	elsewhere := createBracket(t, db, owner, "g2", "Other Season")
	fillBracket(t, db, elsewhere, waifus[:2])

	require.NoError(t, first.StartVote(db, &stubRand{}))

	err := second.StartVote(db, &stubRand{})
	var busy *AnotherBracketVotingError
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, first.ID, busy.OtherBracketID)

	// A different community is unaffected.
	require.NoError(t, elsewhere.StartVote(db, &stubRand{}))

	voting, err := VotingBracket(db, "g1")
	require.NoError(t, err)
	require.NotNil(t, voting)
	assert.Equal(t, first.ID, voting.ID)

	voting, err = VotingBracket(db, "g3")
	require.NoError(t, err)
	assert.Nil(t, voting)
}

func TestCastVoteOncePerDivision(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	waifus := createRoster(t, db, 4)
	b := createBracket(t, db, owner, "g1", "Season One")
	fillBracket(t, db, b, waifus)
	require.NoError(t, b.StartVote(db, &stubRand{}))

	vote, err := b.CastVote(db, 1, waifus[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, vote.DivisionID)

	// Same division, either side: an informative no-op.
	_, err = b.CastVote(db, 1, waifus[1].ID)
	var already *AlreadyVotedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, 1, already.Division)
	assert.Equal(t, waifus[0].ID, already.ChosenWaifuID)

	// The other division and another user are both free.
	_, err = b.CastVote(db, 1, waifus[2].ID)
	require.NoError(t, err)
	_, err = b.CastVote(db, 2, waifus[1].ID)
	require.NoError(t, err)

	entries, err := b.loadEntries(db)
	require.NoError(t, err)
	counts := map[uint]int{}
	for _, e := range entries {
		counts[e.WaifuID] = e.VoteCount
	}
	assert.Equal(t, 1, counts[waifus[0].ID])
	assert.Equal(t, 1, counts[waifus[1].ID])
	assert.Equal(t, 1, counts[waifus[2].ID])
	assert.Equal(t, 0, counts[waifus[3].ID])

	votes, err := b.FindUserVotes(db, 1)
	require.NoError(t, err)
	require.Len(t, votes, 2)
	assert.Equal(t, 1, votes[0].DivisionID)
	assert.Equal(t, 2, votes[1].DivisionID)
}

func TestRetractVoteFreesTheDivision(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	waifus := createRoster(t, db, 2)
	b := createBracket(t, db, owner, "g1", "Season One")
	fillBracket(t, db, b, waifus)
	require.NoError(t, b.StartVote(db, &stubRand{}))

	_, err := b.CastVote(db, 1, waifus[0].ID)
	require.NoError(t, err)

	// Retracting names the vote you cast, not just the division.
	assert.ErrorIs(t, b.RetractVote(db, 1, waifus[1].ID), ErrNoVoteToRetract)
	require.NoError(t, b.RetractVote(db, 1, waifus[0].ID))
	assert.ErrorIs(t, b.RetractVote(db, 1, waifus[0].ID), ErrNoVoteToRetract)

	entries, err := b.loadEntries(db)
	require.NoError(t, err)
	assert.Zero(t, entries[0].VoteCount)

	// The division accepts a fresh choice afterwards.
	vote, err := b.CastVote(db, 1, waifus[1].ID)
	require.NoError(t, err)
	assert.Equal(t, waifus[1].ID, vote.WaifuID)
}

func TestVotesRequireVotableStatus(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	waifus := createRoster(t, db, 2)
	b := createBracket(t, db, owner, "g1", "Season One")
	fillBracket(t, db, b, waifus)

	_, err := b.CastVote(db, 1, waifus[0].ID)
	assert.ErrorIs(t, err, ErrNotVotable)
	assert.ErrorIs(t, b.RetractVote(db, 1, waifus[0].ID), ErrNotVotable)
}

func TestLockSuspendsAndUnlockResumes(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	waifus := createRoster(t, db, 2)

	open := createBracket(t, db, owner, "g1", "Season One")
	require.NoError(t, open.Lock(db))
	assert.Equal(t, StatusLocked, open.Status)
	assert.Equal(t, StatusOpen, open.PriorStatus)
	assert.ErrorIs(t, open.Lock(db), ErrAlreadyLocked)
	require.NoError(t, open.Unlock(db))
	assert.Equal(t, StatusOpen, open.Status)
	assert.ErrorIs(t, open.Unlock(db), ErrNotLocked)

	votable := createBracket(t, db, owner, "g2", "Season Two")
	fillBracket(t, db, votable, waifus)
	require.NoError(t, votable.StartVote(db, &stubRand{}))
	require.NoError(t, votable.Lock(db))

	_, err := votable.CastVote(db, 1, waifus[0].ID)
	assert.ErrorIs(t, err, ErrNotVotable)

	require.NoError(t, votable.Unlock(db))
	assert.Equal(t, StatusVotable, votable.Status)
	_, err = votable.CastVote(db, 1, waifus[0].ID)
	require.NoError(t, err)

	require.NoError(t, votable.Close(db))
	assert.Equal(t, StatusClosed, votable.Status)
	assert.ErrorIs(t, votable.Lock(db), ErrBracketClosed)
}

// Locking a votable bracket frees the community's voting slot; if another
// bracket takes it, the locked one cannot resume into VOTABLE until the
// slot is free again.
func TestUnlockRechecksVotingSlot(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	waifus := createRoster(t, db, 4)

	first := createBracket(t, db, owner, "g1", "Season One")
	fillBracket(t, db, first, waifus[:2])
	second := createBracket(t, db, owner, "g1", "Season Two")
	fillBracket(t, db, second, waifus[2:])

	require.NoError(t, first.StartVote(db, &stubRand{}))
	require.NoError(t, first.Lock(db))

	require.NoError(t, second.StartVote(db, &stubRand{}))

	err := first.Unlock(db)
	var busy *AnotherBracketVotingError
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, second.ID, busy.OtherBracketID)
	assert.Equal(t, StatusLocked, first.Status)

	require.NoError(t, second.Close(db))
	require.NoError(t, first.Unlock(db))
	assert.Equal(t, StatusVotable, first.Status)

	voting, err := VotingBracket(db, "g1")
	require.NoError(t, err)
	require.NotNil(t, voting)
	assert.Equal(t, first.ID, voting.ID)
}

// The canonical four-entrant walkthrough: division 1 ties and is broken in
// favor of the lower rank, division 2 has a clear winner, and the two of
// them seed round two.
func TestFinishRoundCollapsesIntoNextBracket(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	b := createBracket(t, db, owner, "g1", "Eva Girls")

	asuka := createWaifu(t, db, "Asuka Langley", "Neon Genesis Evangelion")
	rei := createWaifu(t, db, "Rei Ayanami", "Neon Genesis Evangelion")
	misato := createWaifu(t, db, "Misato Katsuragi", "Neon Genesis Evangelion")
	mari := createWaifu(t, db, "Mari Makinami", "Neon Genesis Evangelion")
	fillBracket(t, db, b, []*Waifu{asuka, rei, misato, mari})

	require.NoError(t, b.StartVote(db, &stubRand{}))

	_, err := b.CastVote(db, 1, asuka.ID)
	require.NoError(t, err)
	_, err = b.CastVote(db, 2, rei.ID)
	require.NoError(t, err)
	_, err = b.CastVote(db, 1, misato.ID)
	require.NoError(t, err)

	result, err := b.FinishRound(db, &stubRand{ints: []int{0}})
	require.NoError(t, err)

	assert.False(t, result.Final)
	assert.Nil(t, result.Winner)
	assert.Equal(t, []int{1}, result.TieBreaks)
	assert.Equal(t, b.ID, result.Closed)
	assert.Equal(t, StatusClosed, b.Status)

	next := result.Next
	require.NotNil(t, next)
	assert.Equal(t, "Eva Girls (round 2)", next.Name)
	assert.Equal(t, 2, next.Round)
	assert.Equal(t, StatusOpen, next.Status)
	assert.Equal(t, "g1", next.CommunityID)

	require.Len(t, next.Entries, 2)
	assert.Equal(t, asuka.ID, next.Entries[0].WaifuID)
	assert.Equal(t, 1, next.Entries[0].Rank)
	assert.Equal(t, misato.ID, next.Entries[1].WaifuID)
	assert.Equal(t, 2, next.Entries[1].Rank)

	// The community's voting slot is free again.
	voting, err := VotingBracket(db, "g1")
	require.NoError(t, err)
	assert.Nil(t, voting)
}

func TestFinishRoundFinal(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	waifus := createRoster(t, db, 2)
	b := createBracket(t, db, owner, "g1", "Finals")
	fillBracket(t, db, b, waifus)
	require.NoError(t, b.StartVote(db, &stubRand{}))

	_, err := b.CastVote(db, 1, waifus[1].ID)
	require.NoError(t, err)

	result, err := b.FinishRound(db, &stubRand{})
	require.NoError(t, err)

	assert.True(t, result.Final)
	assert.Nil(t, result.Next)
	require.NotNil(t, result.Winner)
	assert.Equal(t, waifus[1].ID, result.Winner.ID)
	assert.Empty(t, result.TieBreaks)
}

func TestFinishRoundRequiresVotable(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	b := createBracket(t, db, owner, "g1", "Season One")

	_, err := b.FinishRound(db, &stubRand{})
	assert.ErrorIs(t, err, ErrNotVotable)
}

func TestNextRoundNameReplacesSuffix(t *testing.T) {
	assert.Equal(t, "Eva Girls (round 2)", nextRoundName("Eva Girls", 2))
	assert.Equal(t, "Eva Girls (round 3)", nextRoundName("Eva Girls (round 2)", 3))
}

func TestFindBracketByName(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	summer := createBracket(t, db, owner, "g1", "Summer Showdown")
	createBracket(t, db, owner, "g1", "Winter Showdown")
	createBracket(t, db, owner, "g2", "Summer Special")

	found, err := (&Bracket{}).FindBracketByName(db, "g1", "SUMMER")
	require.NoError(t, err)
	assert.Equal(t, summer.ID, found.ID)

	_, err = (&Bracket{}).FindBracketByName(db, "g1", "showdown")
	var tooMany *TooManyBracketMatchesError
	require.ErrorAs(t, err, &tooMany)
	require.Len(t, tooMany.Candidates, 2)

	var unknown *UnknownBracketNameError
	_, err = (&Bracket{}).FindBracketByName(db, "g1", "autumn")
	require.ErrorAs(t, err, &unknown)
	_, err = (&Bracket{}).FindBracketByName(db, "g1", "%")
	require.ErrorAs(t, err, &unknown)
}

func TestGlobalBracketIsReadOnly(t *testing.T) {
	db := newTestDB(t)
	waifus := createRoster(t, db, 3)

	global, err := GlobalBracket(db)
	require.NoError(t, err)
	assert.Equal(t, GlobalBracketID, global.ID)
	assert.Equal(t, StatusClosed, global.Status)
	require.Len(t, global.Entries, 3)
	for i, entry := range global.Entries {
		assert.Equal(t, i+1, entry.Rank)
		assert.Equal(t, waifus[i].ID, entry.WaifuID)
	}

	_, err = global.AddEntry(db, waifus[0].ID)
	assert.ErrorIs(t, err, ErrGlobalReadOnly)
	assert.ErrorIs(t, global.RemoveEntry(db, waifus[0].ID), ErrGlobalReadOnly)
}
