package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Service orchestrates order placement, status transitions, and queries.
type Service struct {
	store       ports.Store
	catalog     ports.CatalogReader
	idempotency ports.IdempotencyStore
	validator   *Validator
	writer      *Writer
	retry       RetryPolicy
	now         func() time.Time
}

// Option customises the service.
type Option func(*Service)

// WithIdempotencyStore enables Idempotency-Key replay for PlaceOrder.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithRetryPolicy overrides the transaction retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(s *Service) {
		s.retry = policy
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the order service. catalog serves advisory reads outside transactions.
func NewService(store ports.Store, catalog ports.CatalogReader, opts ...Option) *Service {
	s := &Service{
		store:     store,
		catalog:   catalog,
		validator: NewValidator(),
		retry:     DefaultRetryPolicy(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.writer = NewWriter(s.now)
	return s
}

// PlaceOrder validates the cart and writes the order atomically, retrying the whole
// transaction on conflicts. The committed order is read back with its items.
// Idempotency keys are scoped to the placing user.
func (s *Service) PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (*types.OrderProjection, error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	if s.idempotency == nil {
		key = ""
	}
	var fingerprint string
	if key != "" {
		fp, err := FingerprintPlaceOrder(input)
		if err != nil {
			return nil, err
		}
		fingerprint = fp
		if replayed, err := s.replay(ctx, input.UserID, key, fingerprint); err != nil || replayed != nil {
			return replayed, err
		}
	}

	var placed *domain.Order
	err := s.retry.run(ctx, func() error {
		return s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
			validated, err := s.validator.Validate(ctx, tx, input)
			if err != nil {
				return err
			}
			order, err := s.writer.Write(ctx, tx, input.UserID, validated)
			if err != nil {
				return err
			}
			if key != "" {
				record := ports.IdempotencyRecord{
					UserID:      input.UserID,
					Key:         key,
					RequestHash: fingerprint,
					OrderID:     order.ID,
					CreatedAt:   order.CreatedAt,
				}
				if err := tx.ClaimIdempotencyKey(ctx, record); err != nil {
					return err
				}
			}
			placed = order
			return nil
		})
	})
	if errors.Is(err, ports.ErrIdempotencyKeyClaimed) {
		replayed, replayErr := s.replay(ctx, input.UserID, key, fingerprint)
		if replayErr != nil {
			return nil, replayErr
		}
		if replayed != nil {
			return replayed, nil
		}
		return nil, ports.ErrIdempotencyConflict
	}
	if err != nil {
		return nil, mapError(err)
	}
	projection, err := s.GetOrder(ctx, placed.ID)
	if err != nil {
		// Committed already. Reporting the read failure would invite a retry that places it twice.
		return types.NewOrderProjection(placed, placed.CreatedAt, placed.CreatedAt), nil
	}
	return projection, nil
}

func (s *Service) replay(ctx context.Context, userID int64, key, fingerprint string) (*types.OrderProjection, error) {
	record, err := s.idempotency.Get(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	if record.RequestHash != fingerprint {
		return nil, ports.ErrIdempotencyConflict
	}
	return s.GetOrder(ctx, record.OrderID)
}

// QuoteOrder runs validation against the advisory catalog without writing anything.
func (s *Service) QuoteOrder(ctx context.Context, input types.PlaceOrderInput) (*types.Quote, error) {
	var validated *types.ValidatedOrder
	err := s.retry.run(ctx, func() error {
		var err error
		validated, err = s.validator.Validate(ctx, s.catalog, input)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &types.Quote{Items: validated.Items, Total: validated.Total}, nil
}

// TransitionOrderStatus applies an allowed status change and records an audit entry in the same transaction.
func (s *Service) TransitionOrderStatus(ctx context.Context, input types.TransitionOrderInput) (*types.OrderProjection, error) {
	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		return nil, mapError(domain.MissingField(FieldActor))
	}
	raw := strings.ToLower(strings.TrimSpace(input.Status))
	if raw == "" {
		return nil, mapError(domain.MissingField(FieldStatus))
	}
	if input.OrderID <= 0 {
		return nil, invalidInput("order id must be greater than zero")
	}
	target, known := domain.ParseStatus(raw)

	err := s.retry.run(ctx, func() error {
		return s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
			current, err := tx.GetOrderForUpdate(ctx, input.OrderID)
			if err != nil {
				return err
			}
			order := current.Entity
			if !known {
				return domain.InvalidTransition(order.ID, order.Status, domain.Status(raw))
			}
			previous, err := order.TransitionTo(target)
			if err != nil {
				return err
			}
			now := s.now().UTC()
			if err := tx.UpdateOrderStatus(ctx, order.ID, target, now); err != nil {
				return err
			}
			if err := tx.AppendAudit(ctx, domain.NewStatusAudit(actor, order.ID, previous, target, now)); err != nil {
				return err
			}
			event, err := domain.NewStatusChangedEvent(order.ID, previous, target, actor, now)
			if err != nil {
				return err
			}
			return tx.AppendEvent(ctx, event)
		})
	})
	if err != nil {
		return nil, mapError(err)
	}
	return s.GetOrder(ctx, input.OrderID)
}

// ListOrders returns one page of orders and the total count, read from one snapshot.
func (s *Service) ListOrders(ctx context.Context, input types.ListOrdersInput) (*types.OrderPage, error) {
	page := input.Page
	if page.Offset < 0 {
		return nil, invalidInput("offset must not be negative")
	}
	if page.Limit <= 0 {
		page.Limit = DefaultPageLimit
	}
	if page.Limit > MaxPageLimit {
		page.Limit = MaxPageLimit
	}
	filter := input.Filter
	if filter.Status != nil {
		if _, ok := domain.ParseStatus(string(*filter.Status)); !ok {
			return nil, invalidInput("unknown status %q", *filter.Status)
		}
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, invalidInput("from must be before to")
	}

	result := &types.OrderPage{Offset: page.Offset, Limit: page.Limit}
	err := s.retry.run(ctx, func() error {
		return s.store.WithinReadTx(ctx, func(ctx context.Context, reader ports.OrderReader) error {
			orders, total, err := reader.ListOrders(ctx, filter, page)
			if err != nil {
				return err
			}
			result.Items = orders
			result.Total = total
			return nil
		})
	})
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// GetOrder returns one order with its line items.
func (s *Service) GetOrder(ctx context.Context, orderID int64) (*types.OrderProjection, error) {
	if orderID <= 0 {
		return nil, invalidInput("order id must be greater than zero")
	}
	var result *types.OrderProjection
	err := s.retry.run(ctx, func() error {
		return s.store.WithinReadTx(ctx, func(ctx context.Context, reader ports.OrderReader) error {
			order, err := reader.GetOrder(ctx, orderID)
			if err != nil {
				return err
			}
			result = order
			return nil
		})
	})
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// LookupProduct reads a product's current price and stock.
func (s *Service) LookupProduct(ctx context.Context, productID int64) (domain.CatalogEntry, error) {
	if productID <= 0 {
		return domain.CatalogEntry{}, invalidInput("product id must be greater than zero")
	}
	var entry domain.CatalogEntry
	err := s.retry.run(ctx, func() error {
		var err error
		entry, err = s.catalog.GetProductPriceAndStock(ctx, productID)
		return err
	})
	if err != nil {
		return domain.CatalogEntry{}, mapError(err)
	}
	return entry, nil
}

var _ ports.Service = (*Service)(nil)
