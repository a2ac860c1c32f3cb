package engine

import "fmt"

// Entrant is one ranked bracket slot as seen by the pairing engine.
// The engine never touches storage; callers load entrants in rank order
// and persist whatever the engine hands back.
type Entrant struct {
	EntryID uint
	WaifuID uint
	Rank    int
	Votes   int
}

// Division is a single 1v1 matchup. Division k pairs ranks 2k-1 and 2k.
type Division struct {
	Number int
	Left   Entrant
	Right  Entrant
}

// Outcome is the result of collapsing one full round.
type Outcome struct {
	// Winners in division order. Rank is already reassigned 1..len(Winners).
	Winners []Entrant
	// TieBreaks lists the division numbers that were decided by coin flip.
	TieBreaks []int
	// Final is set when a single entrant remains: the tournament is over.
	Final bool
}

// OddEntryCountError is raised when a round cannot be paired. The
// power-of-two gate on starting a vote should make this unreachable, but
// pairing checks anyway rather than silently dropping the last entrant.
type OddEntryCountError struct {
	Count int
}

func (e *OddEntryCountError) Error() string {
	return fmt.Sprintf("cannot pair %d entries into divisions", e.Count)
}

// Pairings consumes entrants two at a time in rank order.
func Pairings(entrants []Entrant) ([]Division, error) {
	if len(entrants)%2 != 0 {
		return nil, &OddEntryCountError{Count: len(entrants)}
	}
	divisions := make([]Division, 0, len(entrants)/2)
	for i := 0; i < len(entrants); i += 2 {
		divisions = append(divisions, Division{
			Number: i/2 + 1,
			Left:   entrants[i],
			Right:  entrants[i+1],
		})
	}
	return divisions, nil
}

// ResolveDivision picks the entrant with the strict vote majority. An exact
// tie is decided uniformly at random and flagged so callers can tell users
// a coin flip happened.
func ResolveDivision(r Rand, d Division) (winner Entrant, tieBroken bool) {
	switch {
	case d.Left.Votes > d.Right.Votes:
		return d.Left, false
	case d.Right.Votes > d.Left.Votes:
		return d.Right, false
	}
	if r.Intn(2) == 0 {
		return d.Left, true
	}
	return d.Right, true
}

// AdvanceRound resolves every division of the round and returns the next
// round's entrant list, winners re-ranked 1..N/2 in division order. With two
// entrants the outcome is final and no further round exists.
func AdvanceRound(r Rand, entrants []Entrant) (Outcome, error) {
	divisions, err := Pairings(entrants)
	if err != nil {
		return Outcome{}, err
	}
	outcome := Outcome{Winners: make([]Entrant, 0, len(divisions))}
	for _, d := range divisions {
		winner, tieBroken := ResolveDivision(r, d)
		winner.Rank = d.Number
		winner.Votes = 0
		outcome.Winners = append(outcome.Winners, winner)
		if tieBroken {
			outcome.TieBreaks = append(outcome.TieBreaks, d.Number)
		}
	}
	outcome.Final = len(outcome.Winners) == 1
	return outcome, nil
}
