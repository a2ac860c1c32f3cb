package models

import "sync"

// registryMu serializes registry writes (save, rename, alias add) against
// resolver reads so a search never sees a half-applied rename. Write volume
// is tiny, one lock for the whole registry is enough.
var registryMu sync.RWMutex

// communityLocks serializes the check-then-set in StartVote and FinishRound
// per community, closing the race on the one-votable-bracket invariant.
var communityLocks sync.Map

func communityLock(communityID string) *sync.Mutex {
	mu, _ := communityLocks.LoadOrStore(communityID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
