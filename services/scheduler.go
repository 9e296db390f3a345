// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartStaleSessionSweeper abandons playing sessions that nobody has touched
// for maxIdle — browser tabs that closed without abandoning first. Runs on a
// gocron ticker for the life of the process.
func (s *SessionService) StartStaleSessionSweeper(maxIdle time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			cutoff := time.Now().Add(-maxIdle)
			swept, err := s.SweepStaleSessions(cutoff)
			if err != nil {
				log.Printf("[Sweeper] DB error: %v", err)
				return
			}
			if swept > 0 {
				log.Printf("🧹 Abandoned %d stale session(s) idle since %s", swept, cutoff.Format(time.RFC3339))
			}
		}),
	)
}
