package storefrontserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	orderhttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

const (
	headerUserID         = "X-User-ID"
	headerActor          = "X-Actor"
	headerIdempotencyKey = "Idempotency-Key"
)

// OrdersAPI wires HTTP transport with the orders bounded context service and workflows.
type OrdersAPI struct {
	service   orderports.Service
	workflows orderports.WorkflowOrchestrator
}

// NewOrdersAPI creates an OrdersAPI backed by the provided service. Placement
// goes through workflows when one is supplied.
func NewOrdersAPI(service orderports.Service, workflows orderports.WorkflowOrchestrator) OrdersAPI {
	return OrdersAPI{service: service, workflows: workflows}
}

// Post /v1/orders
// Place an order
func (api *OrdersAPI) PlaceOrder(c *gin.Context) {
	userID, ok := bindUserID(c)
	if !ok {
		return
	}
	var payload orderhttpmapper.PlaceOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	key := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
	input := orderhttpmapper.ToPlaceOrderInput(userID, key, payload)
	placed, err := api.placeOrder(c.Request.Context(), input)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	out := orderhttpmapper.FromProjection(placed)
	c.Header("Location", fmt.Sprintf("/v1/orders/%d", out.ID))
	c.JSON(http.StatusCreated, out)
}

func (api *OrdersAPI) placeOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderProjection, error) {
	if api.workflows != nil {
		return api.workflows.PlaceOrder(ctx, input)
	}
	return api.service.PlaceOrder(ctx, input)
}

// Post /v1/orders/quote
// Price a cart against the catalog without placing it
func (api *OrdersAPI) QuoteOrder(c *gin.Context) {
	userID, ok := bindUserID(c)
	if !ok {
		return
	}
	var payload orderhttpmapper.PlaceOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	quote, err := api.service.QuoteOrder(c.Request.Context(), orderhttpmapper.ToPlaceOrderInput(userID, "", payload))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromQuote(quote))
}

// Get /v1/orders
// List orders, newest first
func (api *OrdersAPI) ListOrders(c *gin.Context) {
	input, ok := bindListOrdersParams(c)
	if !ok {
		return
	}
	page, err := api.service.ListOrders(c.Request.Context(), input)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromPage(page))
}

// Get /v1/orders/:orderId
// Find order by ID
func (api *OrdersAPI) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjection(order))
}

// Post /v1/orders/:orderId/status
// Move an order to a new status
func (api *OrdersAPI) TransitionOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload orderhttpmapper.TransitionRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	input := ordertypes.TransitionOrderInput{
		OrderID: id,
		Status:  payload.Status,
		Actor:   c.GetHeader(headerActor),
	}
	updated, err := api.service.TransitionOrderStatus(c.Request.Context(), input)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromProjection(updated))
}

// A missing user header is left to validation so it is reported as MissingField.
func bindUserID(c *gin.Context) (int64, bool) {
	raw := strings.TrimSpace(c.GetHeader(headerUserID))
	if raw == "" {
		return 0, true
	}
	var userID int64
	err := runtime.BindStyledParameterWithOptions("simple", headerUserID, raw, &userID, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationHeader,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(fmt.Sprintf("invalid %s header: %s", headerUserID, err)))
		return 0, false
	}
	return userID, true
}

// bindListOrdersParams reads status, userId, from, to, offset and limit. Dates
// are whole UTC days and "to" is inclusive.
func bindListOrdersParams(c *gin.Context) (ordertypes.ListOrdersInput, bool) {
	query := c.Request.URL.Query()
	var (
		status *string
		userID *int64
		from   *openapi_types.Date
		to     *openapi_types.Date
		offset *int
		limit  *int
	)
	bindings := []struct {
		name string
		dest any
	}{
		{"status", &status},
		{"userId", &userID},
		{"from", &from},
		{"to", &to},
		{"offset", &offset},
		{"limit", &limit},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			respondProblem(c, apierrors.ErrBadRequest.WithDetail(fmt.Sprintf("invalid format for parameter %s: %s", b.name, err)))
			return ordertypes.ListOrdersInput{}, false
		}
	}

	var input ordertypes.ListOrdersInput
	if status != nil && strings.TrimSpace(*status) != "" {
		s := domain.Status(strings.ToLower(strings.TrimSpace(*status)))
		input.Filter.Status = &s
	}
	input.Filter.UserID = userID
	if from != nil {
		start := dayStart(from.Time)
		input.Filter.From = &start
	}
	if to != nil {
		end := dayStart(to.Time).Add(24 * time.Hour)
		input.Filter.To = &end
	}
	if offset != nil {
		input.Page.Offset = *offset
	}
	if limit != nil {
		input.Page.Limit = *limit
	}
	return input, true
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
