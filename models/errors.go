package models

import (
	"errors"
	"fmt"
)

// Every failure in this package is an expected, typed condition surfaced to
// the caller. Nothing here is retried automatically and nothing is fatal;
// raw storage errors pass through untouched.

// Lookup failures.
var (
	ErrUnknownWaifu    = errors.New("no waifu with that id")
	ErrUnknownBracket  = errors.New("no bracket with that id")
	ErrEntryNotFound   = errors.New("waifu has no entry in this bracket")
	ErrNoVoteToRetract = errors.New("no vote to retract in this division")
)

// State failures.
var (
	ErrNotVotable     = errors.New("bracket is not accepting votes")
	ErrNotLocked      = errors.New("bracket is not locked")
	ErrAlreadyLocked  = errors.New("bracket is already locked")
	ErrBracketClosed  = errors.New("bracket is closed")
	ErrGlobalReadOnly = errors.New("the global bracket is read-only")
)

// DuplicateNameError reports a case-insensitive collision with an existing
// waifu name or alias.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("name %q already belongs to a waifu or alias", e.Name)
}

// DuplicateAliasError reports that the alias string already denotes some
// waifu or source work.
type DuplicateAliasError struct {
	Alias string
}

func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("alias %q is already taken", e.Alias)
}

// NoMatchError reports that a search query matched nothing.
type NoMatchError struct {
	Query string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("nothing matches %q", e.Query)
}

// AmbiguousMatchError carries every candidate so the caller can present a
// disambiguation list; the user resolves it with an exact-id lookup, this
// package never guesses.
type AmbiguousMatchError struct {
	Query      string
	Candidates []Waifu
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%q matches %d waifus", e.Query, len(e.Candidates))
}

// AmbiguousSourceWorkError is the source-work flavour of an ambiguous match.
type AmbiguousSourceWorkError struct {
	Query      string
	Candidates []string
}

func (e *AmbiguousSourceWorkError) Error() string {
	return fmt.Sprintf("%q matches %d source works", e.Query, len(e.Candidates))
}

// UnknownBracketNameError reports that a bracket search matched nothing
// within the community.
type UnknownBracketNameError struct {
	Query string
}

func (e *UnknownBracketNameError) Error() string {
	return fmt.Sprintf("no bracket matches %q", e.Query)
}

// TooManyBracketMatchesError carries the matching brackets for
// disambiguation.
type TooManyBracketMatchesError struct {
	Query      string
	Candidates []Bracket
}

func (e *TooManyBracketMatchesError) Error() string {
	return fmt.Sprintf("%q matches %d brackets", e.Query, len(e.Candidates))
}

// NotOpenError reports an entry mutation attempted outside OPEN.
type NotOpenError struct {
	Status string
}

func (e *NotOpenError) Error() string {
	return fmt.Sprintf("bracket is %s, entries can only change while open", e.Status)
}

// NotPowerOfTwoError reports an attempt to start voting with an entry count
// that cannot form a full bracket. Lower and Higher are the nearest legal
// sizes so the caller can tell the user what to add or drop.
type NotPowerOfTwoError struct {
	Count  int
	Lower  int
	Higher int
}

func (e *NotPowerOfTwoError) Error() string {
	return fmt.Sprintf("%d entries cannot form a bracket; nearest sizes are %d and %d", e.Count, e.Lower, e.Higher)
}

// AnotherBracketVotingError reports the one-votable-bracket-per-community
// rule, naming the bracket currently holding the slot.
type AnotherBracketVotingError struct {
	OtherBracketID uint
}

func (e *AnotherBracketVotingError) Error() string {
	return fmt.Sprintf("bracket %d is already collecting votes in this community", e.OtherBracketID)
}

// AlreadyInBracketError reports a duplicate entry registration.
type AlreadyInBracketError struct {
	WaifuID uint
}

func (e *AlreadyInBracketError) Error() string {
	return fmt.Sprintf("waifu %d already has an entry in this bracket", e.WaifuID)
}

// AlreadyVotedError reports a second vote for the same division. It is an
// informative no-op, not an overwrite: the existing choice is included so
// the caller can show the user what they already picked.
type AlreadyVotedError struct {
	Division      int
	ChosenWaifuID uint
}

func (e *AlreadyVotedError) Error() string {
	return fmt.Sprintf("already voted for waifu %d in division %d", e.ChosenWaifuID, e.Division)
}
