package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalUsage(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner")
	waifus := createRoster(t, db, 4)

	// The first two fight in two communities; the last two never leave the
	// registry.
	for _, community := range []string{"g1", "g2"} {
		b := createBracket(t, db, owner, community, "Season One")
		fillBracket(t, db, b, waifus[:2])
		require.NoError(t, b.StartVote(db, &stubRand{}))
		_, err := b.CastVote(db, 1, waifus[1].ID)
		require.NoError(t, err)
	}

	usage, err := GlobalUsage(db)
	require.NoError(t, err)
	require.Len(t, usage, 4)

	assert.Equal(t, waifus[1].ID, usage[0].WaifuID)
	assert.Equal(t, int64(2), usage[0].BracketCount)
	assert.Equal(t, int64(2), usage[0].TotalVotes)

	assert.Equal(t, waifus[0].ID, usage[1].WaifuID)
	assert.Equal(t, int64(2), usage[1].BracketCount)
	assert.Equal(t, int64(0), usage[1].TotalVotes)

	// Ties on votes and usage fall back to registry order.
	assert.Equal(t, waifus[2].ID, usage[2].WaifuID)
	assert.Equal(t, waifus[3].ID, usage[3].WaifuID)
}
