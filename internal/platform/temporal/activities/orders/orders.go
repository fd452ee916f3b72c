package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

// PlaceOrderActivityName validates and writes one order in a single transaction.
const PlaceOrderActivityName = "orders.activities.PlaceOrder"

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ports.Service
}

// NewActivities wires the orders service into the Temporal activities bundle.
func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// PlaceOrder runs the placement use case. Rejections are final and carry the
// structured rejection as details; store outages are left to the retry policy.
func (a *Activities) PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderProjection, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("order placement activity not initialized", "userId", input.UserID)
		return nil, errors.New("order placement activity not initialized")
	}
	logger.Info("PlaceOrder activity started", "userId", input.UserID, "items", len(input.Items))
	projection, err := a.service.PlaceOrder(ctx, input)
	if err != nil {
		logger.Warn("PlaceOrder activity failed", "userId", input.UserID, "error", err)
		return nil, ToApplicationError(err)
	}
	if projection != nil && projection.Entity != nil {
		logger.Info("PlaceOrder activity completed", "orderId", projection.Entity.ID)
	}
	return projection, nil
}

// ToApplicationError converts service failures into Temporal application errors
// whose type is the failure kind.
func ToApplicationError(err error) error {
	kind := application.KindOf(err)
	switch kind {
	case "", application.KindStoreUnavailable:
		return err
	}
	if rejection, ok := domain.AsError(err); ok {
		return temporal.NewNonRetryableApplicationError(rejection.Error(), kind, err, rejection)
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), kind, err)
}
