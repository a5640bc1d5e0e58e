package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"linkos_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const defaultRecalcDebounce = 2 * time.Second

type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
	debounce  time.Duration
}

func NewClient(cfg config.SchedulerConfig, debounce time.Duration) (*Client, error) {
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
	if debounce <= 0 {
		debounce = defaultRecalcDebounce
	}

	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		queue:     queue,
		debounce:  debounce,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return errors.Join(c.client.Close(), c.inspector.Close())
}

// EnqueueQuoteRecalculation schedules a totals recompute for quoteID.
//
// A request collapses into a task for the same quote that has not started
// yet. A task that is already running may have read the quote before the
// change behind this request, so a follow-up run is queued under the rerun
// id instead. When both are running the task is enqueued without an id.
func (c *Client) EnqueueQuoteRecalculation(ctx context.Context, quoteID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewQuoteRecalculationTask(QuoteRecalculationPayload{QuoteID: quoteID.String()})
	if err != nil {
		return err
	}

	for _, taskID := range []string{QuoteRecalculationTaskID(quoteID), QuoteRecalculationRerunTaskID(quoteID)} {
		covered, err := c.enqueueOnce(ctx, task, taskID)
		if err != nil {
			return err
		}
		if covered {
			return nil
		}
	}

	_, err = c.client.EnqueueContext(ctx, task, c.taskOptions()...)
	return err
}

// enqueueOnce reports whether a not yet started task with taskID now covers
// the request. It returns false when the task holding the id is running.
func (c *Client) enqueueOnce(ctx context.Context, task *asynq.Task, taskID string) (bool, error) {
	_, err := c.client.EnqueueContext(ctx, task, append(c.taskOptions(), asynq.TaskID(taskID))...)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, asynq.ErrTaskIDConflict) {
		return false, err
	}

	info, err := c.inspector.GetTaskInfo(c.queue, taskID)
	if errors.Is(err, asynq.ErrTaskNotFound) {
		// Finished between the enqueue and the lookup.
		return c.enqueueAgain(ctx, task, taskID)
	}
	if err != nil {
		return false, fmt.Errorf("inspect task %s: %w", taskID, err)
	}

	switch info.State {
	case asynq.TaskStateActive:
		return false, nil
	case asynq.TaskStateArchived, asynq.TaskStateCompleted:
		// Dead tasks keep their id until removed.
		if err := c.inspector.DeleteTask(c.queue, taskID); err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
			return false, fmt.Errorf("delete task %s: %w", taskID, err)
		}
		return c.enqueueAgain(ctx, task, taskID)
	default:
		return true, nil
	}
}

// enqueueAgain retries after the id was freed. Losing the race to another
// request means that request's fresh task covers this one too.
func (c *Client) enqueueAgain(ctx context.Context, task *asynq.Task, taskID string) (bool, error) {
	_, err := c.client.EnqueueContext(ctx, task, append(c.taskOptions(), asynq.TaskID(taskID))...)
	if err == nil || errors.Is(err, asynq.ErrTaskIDConflict) {
		return true, nil
	}
	return false, err
}

func (c *Client) taskOptions() []asynq.Option {
	return []asynq.Option{
		asynq.Queue(c.queue),
		asynq.ProcessIn(c.debounce),
		asynq.MaxRetry(5),
	}
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
