package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/hhpl/auction-server/internal/auction"
)

const (
	auditJobName    = "budget-audit"
	auditJobTimeout = time.Minute
)

// RegisterBudgetAudit schedules the recurring budget integrity sweep.
func RegisterBudgetAudit(engine *auction.Engine, cronExpr string) error {
	if service == nil {
		return ErrNotInitialized
	}
	if strings.TrimSpace(cronExpr) == "" {
		return errors.New("audit cron expression is required")
	}
	jobLogger := log.With().Str("job_name", auditJobName).Str("cron", cronExpr).Logger()

	_, err := service.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditJobTimeout)
			defer cancel()
			jobLogger.Debug().Msg("Budget audit started")
			engine.RunAudit(ctx)
			jobLogger.Debug().Msg("Budget audit completed")
		}),
		gocron.WithName(auditJobName),
	)
	if err != nil {
		jobLogger.Error().Err(err).Msg("Failed to register budget audit")
		return err
	}
	jobLogger.Info().Msg("Budget audit registered")
	return nil
}
