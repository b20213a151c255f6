package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDatasetSync copies tenant datasets from Postgres into the Redis snapshot store.
	TaskDatasetSync = "dataset:sync"
)

// AllTenants selects every tenant known to the source.
const AllTenants = "all"

// DatasetSyncPayload selects what a dataset sync copies. Empty Modules means every
// module stored for the tenant.
type DatasetSyncPayload struct {
	Tenant  string   `json:"tenant"`
	Modules []string `json:"modules,omitempty"`
}

// NewDatasetSyncTask constructs an Asynq task.
func NewDatasetSyncTask(payload DatasetSyncPayload) (*asynq.Task, error) {
	if payload.Tenant == "" {
		payload.Tenant = AllTenants
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode dataset sync: %w", err)
	}
	return asynq.NewTask(TaskDatasetSync, data), nil
}
