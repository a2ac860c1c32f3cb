package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test. The pool is pinned to
// a single connection: every new sqlite :memory: connection is a separate,
// empty database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&User{}, &Waifu{}, &Alias{}, &Bracket{}, &BracketEntry{}, &Vote{})
	require.NoError(t, err)
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *User {
	t.Helper()

	u := User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "password",
	}
	u.Prepare()
	saved, err := u.SaveUser(db)
	require.NoError(t, err)
	return saved
}

func createWaifu(t *testing.T, db *gorm.DB, name, sourceWork string) *Waifu {
	t.Helper()

	w := Waifu{Name: name, SourceWork: sourceWork}
	w.Prepare()
	saved, err := w.SaveWaifu(db)
	require.NoError(t, err)
	return saved
}

func createBracket(t *testing.T, db *gorm.DB, owner *User, communityID, name string) *Bracket {
	t.Helper()

	b := Bracket{Name: name, OwnerID: owner.ID, CommunityID: communityID}
	b.Prepare()
	saved, err := b.SaveBracket(db)
	require.NoError(t, err)
	return saved
}

// stubRand drives state transitions deterministically: Shuffle keeps the
// insertion order and Intn pops scripted values, defaulting to 0.
type stubRand struct {
	ints []int
	pos  int
}

func (r *stubRand) Intn(n int) int {
	if r.pos >= len(r.ints) {
		return 0
	}
	v := r.ints[r.pos] % n
	r.pos++
	return v
}

func (r *stubRand) Shuffle(n int, swap func(i, j int)) {}
