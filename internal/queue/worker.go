package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/averin/ai-chat-api/internal/llm"
	"github.com/averin/ai-chat-api/internal/models"
	"github.com/averin/ai-chat-api/internal/services"
)

// Worker pulls deferred chat tasks off the queue and executes them serially.
// Its only coupling to the serving side is the queue contract; no memory is
// shared with request handlers.
type Worker struct {
	queue         Queue
	provider      llm.CompletionProvider
	conversations services.ConversationServiceProvider
	interval      time.Duration
	ticker        *time.Ticker
	done          chan bool
}

// NewWorker creates a worker polling the queue at the given interval.
func NewWorker(q Queue, provider llm.CompletionProvider, conversations services.ConversationServiceProvider, interval time.Duration) *Worker {
	return &Worker{
		queue:         q,
		provider:      provider,
		conversations: conversations,
		interval:      interval,
		done:          make(chan bool),
	}
}

// Run starts the worker loop. Call from a goroutine.
func (w *Worker) Run() {
	log.Info().Dur("interval", w.interval).Msg("Starting background chat worker...")
	w.ticker = time.NewTicker(w.interval)
	defer w.ticker.Stop()

	w.drain()

	for {
		select {
		case <-w.done:
			log.Info().Msg("Stopping background chat worker.")
			return
		case <-w.ticker.C:
			w.drain()
		}
	}
}

// Stop halts the worker after any in-flight task finishes.
func (w *Worker) Stop() {
	w.done <- true
}

// drain claims and executes tasks until the queue is empty.
func (w *Worker) drain() {
	for {
		task, err := w.queue.Claim(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("Worker: Failed to claim task")
			return
		}
		if task == nil {
			return
		}
		w.execute(task)
	}
}

// execute runs a single claimed task to a terminal state. Failures are
// recorded as the task's failed state with the error detail, never dropped.
func (w *Worker) execute(task *models.ChatTask) {
	log.Info().Str("task_id", task.ID).Msg("Worker: Executing deferred chat task")

	ctx, cancel := context.WithTimeout(context.Background(), llm.DefaultTimeout)
	defer cancel()

	var req models.CompletionRequest
	if err := json.Unmarshal(task.Request, &req); err != nil {
		w.fail(task.ID, "invalid request payload: "+err.Error())
		return
	}

	result, err := w.provider.Complete(ctx, req)
	if err != nil {
		w.fail(task.ID, err.Error())
		return
	}

	if _, err := w.conversations.Append(task.UserID, req.Message, result.Message, result.Model); err != nil {
		log.Error().Err(err).Str("task_id", task.ID).Msg("Worker: Failed to append conversation entry")
		w.fail(task.ID, "storing conversation: "+err.Error())
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		w.fail(task.ID, "encoding result: "+err.Error())
		return
	}
	if err := w.queue.Succeed(context.Background(), task.ID, payload); err != nil {
		log.Error().Err(err).Str("task_id", task.ID).Msg("Worker: Failed to mark task succeeded")
	}
}

func (w *Worker) fail(taskID, detail string) {
	log.Warn().Str("task_id", taskID).Str("error", detail).Msg("Worker: Task failed")
	if err := w.queue.Fail(context.Background(), taskID, detail); err != nil {
		log.Error().Err(err).Str("task_id", taskID).Msg("Worker: Failed to mark task failed")
	}
}
