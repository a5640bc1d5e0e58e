package scheduler

import (
	"context"
	"fmt"

	"linkos_backend/platform/apperr"
	"linkos_backend/platform/config"
	"linkos_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// QuoteRecalculator recomputes and persists the totals of one quote.
type QuoteRecalculator interface {
	RecalculateQuote(ctx context.Context, quoteID uuid.UUID) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	quotes QuoteRecalculator
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, quotes QuoteRecalculator, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := &Worker{
		server: server,
		quotes: quotes,
		log:    log,
	}
	w.mux = w.routes()

	return w, nil
}

func (w *Worker) routes() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskQuoteRecalculation, w.handleQuoteRecalculation)
	return mux
}

// Run processes tasks until ctx is cancelled and in-flight tasks drain.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	// Shutdown follows ctx, not OS signals.
	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
		return
	}

	<-ctx.Done()
	w.server.Shutdown()
}

func (w *Worker) handleQuoteRecalculation(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseQuoteRecalculationPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	quoteID, err := uuid.Parse(payload.QuoteID)
	if err != nil {
		return fmt.Errorf("invalid quote id %q: %w", payload.QuoteID, asynq.SkipRetry)
	}

	err = w.quotes.RecalculateQuote(ctx, quoteID)
	if apperr.Is(err, apperr.KindNotFound) {
		// Deleted between enqueue and run.
		w.log.Info("quote recalculation skipped", "quote_id", quoteID.String())
		return nil
	}
	if err != nil {
		w.log.Warn("quote recalculation failed", "quote_id", quoteID.String(), "error", err)
		return err
	}
	return nil
}
