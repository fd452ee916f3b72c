package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
)

type normalizedPlaceOrderInput struct {
	UserID          int64            `json:"userId"`
	CustomerName    string           `json:"customerName"`
	CustomerEmail   string           `json:"customerEmail"`
	CustomerPhone   string           `json:"customerPhone"`
	ShippingAddress string           `json:"shippingAddress"`
	Notes           string           `json:"notes"`
	Items           []normalizedItem `json:"items"`
	DeclaredTotal   string           `json:"total"`
}

type normalizedItem struct {
	ProductID string `json:"productId"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

// FingerprintPlaceOrder builds a deterministic hash of the checkout payload, excluding the idempotency key.
func FingerprintPlaceOrder(input types.PlaceOrderInput) (string, error) {
	payload, err := json.Marshal(normalizePlaceOrderInput(input))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizePlaceOrderInput(input types.PlaceOrderInput) normalizedPlaceOrderInput {
	items := make([]normalizedItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, normalizedItem{
			ProductID: strings.TrimSpace(item.ProductID),
			Quantity:  strings.TrimSpace(item.Quantity),
			UnitPrice: strings.TrimSpace(item.UnitPrice),
		})
	}
	return normalizedPlaceOrderInput{
		UserID:          input.UserID,
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		Notes:           strings.TrimSpace(input.Notes),
		Items:           items,
		DeclaredTotal:   strings.TrimSpace(input.DeclaredTotal),
	}
}
