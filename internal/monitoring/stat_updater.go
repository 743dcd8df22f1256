package monitoring

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/averin/ai-chat-api/internal/models"
	"github.com/averin/ai-chat-api/internal/queue"
)

// StatUpdater periodically logs queue depth together with the serving
// process's CPU and memory usage.
type StatUpdater struct {
	queue  queue.Queue
	proc   *process.Process
	ticker *time.Ticker
	done   chan bool
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(q queue.Queue) *StatUpdater {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Could not attach to own process, process stats disabled")
		proc = nil
	}
	return &StatUpdater{
		queue: q,
		proc:  proc,
		done:  make(chan bool),
	}
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Msg("Starting background stat updater...")
	su.ticker = time.NewTicker(30 * time.Second)
	defer su.ticker.Stop()

	// Run once immediately on start
	su.report()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-su.ticker.C:
			su.report()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	su.done <- true
}

func (su *StatUpdater) report() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	depth, err := su.queue.Depth(ctx)
	if err != nil {
		log.Error().Err(err).Msg("StatUpdater: Failed to read queue depth")
		return
	}

	event := log.Info().
		Int("tasks_pending", depth[models.TaskPending]).
		Int("tasks_running", depth[models.TaskRunning]).
		Int("tasks_succeeded", depth[models.TaskSucceeded]).
		Int("tasks_failed", depth[models.TaskFailed])

	if su.proc != nil {
		if cpu, err := su.proc.CPUPercent(); err == nil {
			event = event.Float64("cpu_percent", cpu)
		}
		if mem, err := su.proc.MemoryInfo(); err == nil && mem != nil {
			event = event.Uint64("rss_bytes", mem.RSS)
		}
	}

	event.Msg("StatUpdater: queue and process stats")
}
