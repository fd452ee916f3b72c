package storefrontserver

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
	"github.com/shopspring/decimal"

	orderapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

var orderResponder = apierrors.NewChainedResponder("", rejectionProblem, orderServiceProblem)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	apierrors.Respond(c, problem)
}

func respondOrderError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	orderResponder.RespondError(c, err)
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(fmt.Sprintf("invalid format for parameter %s: %s", name, err)))
		return 0, false
	}
	return id, true
}

// rejectionProblem renders a structured rejection with its kind-specific fields.
func rejectionProblem(err error) (apierrors.ProblemDetail, bool) {
	rejection, ok := domain.AsError(err)
	if !ok {
		return apierrors.ProblemDetail{}, false
	}
	ext := map[string]any{"kind": string(rejection.Kind)}
	var problem apierrors.ProblemDetail
	switch rejection.Kind {
	case domain.KindMissingField:
		problem = apierrors.ErrValidation
		ext["field"] = rejection.Field
	case domain.KindInvalidLineItem:
		problem = apierrors.ErrValidation
		ext["position"] = rejection.Position
		if rejection.Item != nil {
			ext["item"] = rejection.Item
		}
	case domain.KindProductNotFound:
		problem = apierrors.ErrUnprocessable
		ext["productId"] = rejection.ProductID
	case domain.KindPriceMismatch:
		problem = apierrors.ErrUnprocessable
		ext["productId"] = rejection.ProductID
		addAmount(ext, "expected", rejection.Expected)
		addAmount(ext, "received", rejection.Received)
	case domain.KindTotalMismatch:
		problem = apierrors.ErrUnprocessable
		addAmount(ext, "expected", rejection.Expected)
		addAmount(ext, "received", rejection.Received)
		if rejection.Received == nil && rejection.Raw != "" {
			ext["received"] = rejection.Raw
		}
	case domain.KindInsufficientStock:
		problem = apierrors.ErrConflict
		ext["productId"] = rejection.ProductID
		ext["requested"] = rejection.Requested
		ext["available"] = rejection.Available
		ext["shortfall"] = rejection.Shortfall
	case domain.KindInvalidTransition:
		problem = apierrors.ErrConflict
		ext["orderId"] = rejection.OrderID
		ext["from"] = string(rejection.From)
		ext["to"] = string(rejection.To)
	default:
		problem = apierrors.ErrUnprocessable
	}
	return problem.WithDetail(rejection.Error()).WithExtensions(ext), true
}

func orderServiceProblem(err error) (apierrors.ProblemDetail, bool) {
	kind := orderapp.KindOf(err)
	switch {
	case errors.Is(err, orderports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()).WithExtension("kind", kind), true
	case errors.Is(err, orderports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()).WithExtension("kind", kind), true
	case errors.Is(err, orderports.ErrStoreUnavailable), errors.Is(err, orderports.ErrTxConflict):
		return apierrors.ErrUnavailable.WithDetail("order store temporarily unavailable, retry later").WithExtension("kind", kind), true
	case errors.Is(err, orderapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()).WithExtension("kind", kind), true
	}
	return apierrors.ProblemDetail{}, false
}

func addAmount(ext map[string]any, key string, amount *decimal.Decimal) {
	if amount != nil {
		ext[key] = domain.FormatAmount(*amount)
	}
}
