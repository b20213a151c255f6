package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/hospitalops/kpi-engine/internal/dataset"
	"github.com/hospitalops/kpi-engine/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	if redisAddr == "" {
		return nil, errors.New("jobs cli: redis address required")
	}
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client, err := jobs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &JobsCLI{client: client, inspector: asynq.NewInspector(opts)}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// TriggerSync enqueues a dataset sync for tenant, optionally limited to modules.
func (c *JobsCLI) TriggerSync(ctx context.Context, tenant string, modules []string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	for _, m := range modules {
		if err := dataset.ValidateModule(m); err != nil {
			return nil, err
		}
	}
	return c.client.EnqueueDatasetSync(ctx, jobs.DatasetSyncPayload{Tenant: tenant, Modules: modules})
}

// InspectQueue reports the state of the sync queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (jobs.QueueStats, error) {
	if c == nil || c.inspector == nil {
		return jobs.QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	return jobs.ReadQueueStats(c.inspector)
}

// ListScheduled returns scheduled task infos for observability.
func (c *JobsCLI) ListScheduled(ctx context.Context, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

func jobsCmd() *cobra.Command {
	var redisAddr string
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Enqueue and inspect background jobs",
	}
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", envOr("REDIS_ADDR", "localhost:6379"), "Redis address of the job queue")

	withCLI := func(fn func(ctx context.Context, c *JobsCLI, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			c, err := NewJobsCLI(redisAddr)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			return fn(ctx, c, cmd)
		}
	}

	var tenant string
	var modules []string
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Enqueue a dataset sync from Postgres into the snapshot store",
		RunE: withCLI(func(ctx context.Context, c *JobsCLI, cmd *cobra.Command) error {
			info, err := c.TriggerSync(ctx, tenant, modules)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		}),
	}
	sync.Flags().StringVar(&tenant, "tenant", jobs.AllTenants, "tenant to sync, or all")
	sync.Flags().StringSliceVar(&modules, "module", nil, "limit the sync to these modules")

	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Show default queue counters",
		RunE: withCLI(func(ctx context.Context, c *JobsCLI, cmd *cobra.Command) error {
			stats, err := c.InspectQueue(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		}),
	}

	var size int
	scheduled := &cobra.Command{
		Use:   "scheduled",
		Short: "List scheduled tasks",
		RunE: withCLI(func(ctx context.Context, c *JobsCLI, cmd *cobra.Command) error {
			infos, err := c.ListScheduled(ctx, size)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tNEXT\tPAYLOAD")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.ID, info.Type, info.NextProcessAt.Format(time.RFC3339), strings.TrimSpace(string(info.Payload)))
			}
			return tw.Flush()
		}),
	}
	scheduled.Flags().IntVar(&size, "size", 10, "page size")

	cmd.AddCommand(sync, inspect, scheduled)
	return cmd
}
