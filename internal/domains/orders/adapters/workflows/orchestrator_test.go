package workflows

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderworkflows "github.com/Apurer/go-gin-storefront/internal/platform/temporal/workflows/orders"
)

func TestPlacementRequest_KeylessCheckoutUsesWorkflowIDAsKey(t *testing.T) {
	workflowID, command := placementRequest(ordertypes.PlaceOrderInput{UserID: 11})

	assert.True(t, strings.HasPrefix(workflowID, "order-placement-11-"), workflowID)
	assert.Equal(t, workflowID, command.IdempotencyKey)

	again, _ := placementRequest(ordertypes.PlaceOrderInput{UserID: 11})
	assert.NotEqual(t, workflowID, again)
}

func TestPlacementRequest_ClientKeyIsKeptAndScopedPerUser(t *testing.T) {
	first, command := placementRequest(ordertypes.PlaceOrderInput{UserID: 11, IdempotencyKey: "cart-1"})
	assert.Equal(t, "cart-1", command.IdempotencyKey)

	repeat, _ := placementRequest(ordertypes.PlaceOrderInput{UserID: 11, IdempotencyKey: " cart-1 "})
	assert.Equal(t, first, repeat)

	otherUser, _ := placementRequest(ordertypes.PlaceOrderInput{UserID: 12, IdempotencyKey: "cart-1"})
	assert.NotEqual(t, first, otherUser)
}

func TestTemporalOrderWorkflows_StartsWithKeyedCommand(t *testing.T) {
	c := mocks.NewClient(t)
	run := mocks.NewWorkflowRun(t)

	var started orderworkflows.OrderPlacementWorkflowInput
	c.On("ExecuteWorkflow",
		mock.Anything,
		mock.MatchedBy(func(opts client.StartWorkflowOptions) bool {
			return opts.TaskQueue == orderworkflows.OrderPlacementTaskQueue &&
				opts.WorkflowIDConflictPolicy == enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING &&
				strings.HasPrefix(opts.ID, "order-placement-11-")
		}),
		orderworkflows.OrderPlacementWorkflowName,
		mock.Anything,
	).Run(func(args mock.Arguments) {
		started = args.Get(3).(orderworkflows.OrderPlacementWorkflowInput)
	}).Return(run, nil)
	run.On("Get", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		projection := args.Get(1).(*ordertypes.OrderProjection)
		projection.Entity = &domain.Order{ID: 1, UserID: 11, Status: domain.StatusPending}
	}).Return(nil)

	placed, err := NewTemporalOrderWorkflows(c).PlaceOrder(context.Background(), ordertypes.PlaceOrderInput{UserID: 11})
	require.NoError(t, err)
	assert.Equal(t, int64(1), placed.Entity.ID)
	assert.NotEmpty(t, started.Command.IdempotencyKey)
	assert.True(t, strings.HasPrefix(started.Command.IdempotencyKey, "order-placement-11-"))
}
