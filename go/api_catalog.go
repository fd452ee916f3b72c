package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/http/mapper"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

// CatalogAPI exposes the advisory catalog lookup.
type CatalogAPI struct {
	service orderports.Service
}

// NewCatalogAPI creates a CatalogAPI backed by the orders service.
func NewCatalogAPI(service orderports.Service) CatalogAPI {
	return CatalogAPI{service: service}
}

// Get /v1/catalog/products/:productId
// Current price and stock of a product. Unknown products answer 200 with exists=false.
func (api *CatalogAPI) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	entry, err := api.service.LookupProduct(c.Request.Context(), id)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromCatalogEntry(entry))
}
