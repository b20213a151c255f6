package jobs

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
)

// Client submits dataset syncs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs a queue client for redisOpts.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	if redisOpts.Addr == "" {
		return nil, errors.New("jobs client: redis address required")
	}
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueDatasetSync queues a sync for payload.Tenant, or every tenant when blank.
func (c *Client) EnqueueDatasetSync(ctx context.Context, payload DatasetSyncPayload) (*asynq.TaskInfo, error) {
	task, err := NewDatasetSyncTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, syncOptions()...)
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
