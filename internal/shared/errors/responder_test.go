package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOutOfStock = stderrors.New("out of stock")

func serve(t *testing.T, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/v1/orders/:id", handler)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/orders/5", nil))
	return rec
}

func TestWithExtension_DoesNotShareTemplateState(t *testing.T) {
	a := ErrConflict.WithExtension("kind", "InsufficientStock")
	b := ErrConflict.WithExtensions(map[string]any{"kind": "InvalidTransition", "from": "completed"})

	assert.Equal(t, "InsufficientStock", a.Extensions["kind"])
	assert.Equal(t, "InvalidTransition", b.Extensions["kind"])
	assert.Nil(t, ErrConflict.Extensions)
}

func TestChainedResponder_FirstMatchingMapperWins(t *testing.T) {
	responder := NewChainedResponder("",
		func(err error) (ProblemDetail, bool) {
			if stderrors.Is(err, errOutOfStock) {
				return ErrConflict.WithDetail(err.Error()).WithExtension("kind", "InsufficientStock"), true
			}
			return ProblemDetail{}, false
		},
		func(error) (ProblemDetail, bool) { return ErrInternal, true },
	)

	rec := serve(t, func(c *gin.Context) { responder.RespondError(c, errOutOfStock) })

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/v1/orders/5", body.Instance)
	assert.Equal(t, "InsufficientStock", body.Extensions["kind"])
}

func TestRespond_UnavailableAdvertisesRetryAfter(t *testing.T) {
	rec := serve(t, func(c *gin.Context) { Respond(c, ErrUnavailable) })
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = serve(t, func(c *gin.Context) {
		c.Header("Retry-After", "30")
		Respond(c, ErrUnavailable)
	})
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestRespondError_UnknownErrorIsInternal(t *testing.T) {
	rec := serve(t, func(c *gin.Context) { RespondError(c, stderrors.New("boom")) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusNotFound, HTTPStatusFromError(ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromError(stderrors.New("x")))
}
