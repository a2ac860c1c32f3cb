package scheduler

import (
	"log"
	"time"

	"WaifuBracket/engine"
	"WaifuBracket/metrics"
	"WaifuBracket/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Scheduler finishes timer-mode voting rounds whose deadline has passed,
// exactly as a manual finish-round call would.
type Scheduler struct {
	db   *gorm.DB
	rng  engine.Rand
	cron *cron.Cron
}

func New(db *gorm.DB) *Scheduler {
	return &Scheduler{
		db:   db,
		rng:  engine.New(),
		cron: cron.New(),
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 1m", s.finishExpiredRounds); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) finishExpiredRounds() {
	expired := []models.Bracket{}
	err := s.db.
		Where("status = ? AND advance_mode = ? AND round_ends_at IS NOT NULL AND round_ends_at <= ?",
			models.StatusVotable, models.AdvanceTimer, time.Now()).
		Find(&expired).Error
	if err != nil {
		log.Printf("scheduler: listing expired rounds: %v", err)
		return
	}

	for i := range expired {
		bracket := &expired[i]
		result, err := bracket.FinishRound(s.db, s.rng)
		if err != nil {
			log.Printf("scheduler: finishing bracket %d: %v", bracket.ID, err)
			continue
		}
		metrics.RoundsFinished.Inc()
		for range result.TieBreaks {
			metrics.TiesBroken.Inc()
		}
		if result.Final {
			log.Printf("scheduler: bracket %d finished, winner waifu %d", bracket.ID, result.Winner.ID)
		} else {
			log.Printf("scheduler: bracket %d collapsed into bracket %d", bracket.ID, result.Next.ID)
		}
	}
}
