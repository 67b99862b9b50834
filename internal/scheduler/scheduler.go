// Package scheduler owns the app's recurring background work. The only job
// today is the budget audit registered from main.
package scheduler

import (
	"errors"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	service  gocron.Scheduler
	initOnce sync.Once
	initErr  error
	stopOnce sync.Once
	stopErr  error
)

var ErrNotInitialized = errors.New("scheduler not initialized")

// Init creates the process-wide scheduler. A job that panics is logged and
// swallowed so one bad run cannot take the server down.
func Init() error {
	initOnce.Do(func() {
		service, initErr = gocron.NewScheduler(
			gocron.WithGlobalJobOptions(
				gocron.WithEventListeners(
					gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
						log.Error().
							Str("job_id", jobID.String()).
							Str("job_name", jobName).
							Interface("panic", recoverData).
							Msg("Scheduler job panicked")
					}),
				),
			),
		)
		if initErr == nil {
			log.Info().Msg("Scheduler initialized")
		}
	})
	return initErr
}

// Start begins running registered jobs.
func Start() error {
	if service == nil {
		return ErrNotInitialized
	}
	log.Info().Msg("Scheduler starting")
	service.Start()
	return nil
}

// Stop shuts the scheduler down, waiting for in-flight jobs. Safe to call
// more than once.
func Stop() error {
	if service == nil {
		return ErrNotInitialized
	}
	stopOnce.Do(func() {
		log.Info().Msg("Scheduler stopping")
		stopErr = service.Shutdown()
	})
	return stopErr
}
