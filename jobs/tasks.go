package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/consignflow/consignflow/internal/platform/cache"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeListingsRefresh invalidates the cached inventory and ticket
	// listings after a movement write.
	TaskTypeListingsRefresh = "listings:refresh"
)

// ListingsRefreshPayload records what triggered the refresh.
type ListingsRefreshPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewListingsRefreshTask constructs an Asynq task.
func NewListingsRefreshTask(payload ListingsRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeListingsRefresh, data), nil
}

// NewListingsRefreshHandler returns the handler that bumps every listing
// cache scope, making all cached listings unreachable at once.
func NewListingsRefreshHandler(logger *slog.Logger, caches ...*cache.Versioned) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ListingsRefreshPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		for _, c := range caches {
			if err := c.Bump(ctx); err != nil {
				return err
			}
		}
		logger.Info("listing caches refreshed", slog.String("reason", payload.Reason), slog.Int("scopes", len(caches)))
		return nil
	}
}
