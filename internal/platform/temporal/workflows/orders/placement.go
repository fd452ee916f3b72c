package orders

import (
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/platform/temporal/sequences"
)

const (
	// OrderPlacementTaskQueue is polled by cmd/worker.
	OrderPlacementTaskQueue = "orders-placement"
	// OrderPlacementWorkflowName is the registered workflow type.
	OrderPlacementWorkflowName = "orders.workflows.Placement"
)

// OrderPlacementWorkflowInput carries the checkout command and the caller's trace id.
type OrderPlacementWorkflowInput struct {
	Command ordertypes.PlaceOrderInput
	TraceID string
}

// OrderPlacementWorkflow places one order durably.
func OrderPlacementWorkflow(ctx workflow.Context, input OrderPlacementWorkflowInput) (*ordertypes.OrderProjection, error) {
	logger := workflow.GetLogger(ctx)
	if input.TraceID != "" {
		logger.Info("order placement workflow started", "traceId", input.TraceID)
	}
	return sequences.RunOrderPlacementSequence(ctx, input.Command)
}
