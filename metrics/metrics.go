package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VotesCast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waifubracket_votes_cast_total",
		Help: "Votes accepted across all brackets.",
	})
	VotesRetracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waifubracket_votes_retracted_total",
		Help: "Votes withdrawn by their caster.",
	})
	RoundsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waifubracket_rounds_finished_total",
		Help: "Voting rounds collapsed into the next bracket or a winner.",
	})
	TiesBroken = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waifubracket_ties_broken_total",
		Help: "Divisions decided by coin flip.",
	})
)
