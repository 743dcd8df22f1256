package monitoring

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/averin/ai-chat-api/internal/queue"
)

// Janitor purges terminal task rows once their result TTL has passed. This
// is the queue's own result-expiry policy: after the purge, the handle polls
// as not-found.
type Janitor struct {
	queue     queue.Queue
	resultTTL time.Duration
	cron      *cron.Cron
}

// NewJanitor creates a janitor purging results older than resultTTL.
func NewJanitor(q queue.Queue, resultTTL time.Duration) *Janitor {
	return &Janitor{
		queue:     q,
		resultTTL: resultTTL,
		cron:      cron.New(),
	}
}

// Start schedules the purge to run every ten minutes.
func (j *Janitor) Start() error {
	_, err := j.cron.AddFunc("@every 10m", j.purge)
	if err != nil {
		return err
	}
	j.cron.Start()
	log.Info().Dur("result_ttl", j.resultTTL).Msg("Starting task result janitor...")
	return nil
}

// Stop halts the schedule, waiting for a running purge to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Stopping task result janitor.")
}

func (j *Janitor) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := j.queue.PurgeExpired(ctx, j.resultTTL)
	if err != nil {
		log.Error().Err(err).Msg("Janitor: Failed to purge expired task results")
		return
	}
	if purged > 0 {
		log.Info().Int64("purged", purged).Msg("Janitor: Purged expired task results")
	}
}
