package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/go-gin-storefront/internal/platform/temporal/activities/orders"
)

// RunOrderPlacementSequence executes the placement activity with a bounded retry policy.
// Each attempt is one transaction carrying an idempotency key, so an attempt retried
// after its commit replays the stored order instead of placing another.
func RunOrderPlacementSequence(ctx workflow.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderProjection, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order placement sequence started", "userId", input.UserID)
	placeOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}

	var projection ordertypes.OrderProjection
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, placeOptions), orderactivities.PlaceOrderActivityName, input).Get(ctx, &projection)
	if err != nil {
		logger.Warn("order placement sequence failed", "userId", input.UserID, "error", err)
		return nil, err
	}
	if projection.Entity != nil {
		logger.Info("order placement sequence committed", "orderId", projection.Entity.ID)
	}
	return &projection, nil
}
