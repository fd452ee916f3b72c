package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/observability/service"

// Service decorates the orders application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.PlaceOrder",
		attribute.Int64("order.user_id", input.UserID),
		attribute.Int("order.items.count", len(input.Items)),
		attribute.Bool("order.idempotent", input.IdempotencyKey != ""),
	)
	defer span.End()

	s.logInfo(ctx, "placing order", slog.Int64("order.user_id", input.UserID), slog.Int("order.items.count", len(input.Items)))
	result, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "order rejected", slog.Int64("order.user_id", input.UserID))
	}
	if result != nil && result.Entity != nil {
		order := result.Entity
		span.SetAttributes(attribute.Int64("order.id", order.ID))
		s.metrics.recordPlaced(ctx)
		s.logInfo(ctx, "order placed",
			slog.Int64("order.id", order.ID),
			slog.Int64("order.user_id", order.UserID),
			slog.String("order.total", domain.FormatAmount(order.TotalAmount)),
		)
	}
	return result, nil
}

// QuoteOrder is traced but not counted; quotes never write.
func (s *Service) QuoteOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*ordertypes.Quote, error) {
	ctx, span := s.startSpan(ctx, "Service.QuoteOrder", attribute.Int("order.items.count", len(input.Items)))
	defer span.End()

	result, err := s.inner.QuoteOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "quote rejected")
	}
	return result, nil
}

func (s *Service) TransitionOrderStatus(ctx context.Context, input ordertypes.TransitionOrderInput) (*ordertypes.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.TransitionOrderStatus",
		attribute.Int64("order.id", input.OrderID),
		attribute.String("order.status.requested", input.Status),
	)
	defer span.End()

	s.logInfo(ctx, "transitioning order", slog.Int64("order.id", input.OrderID), slog.String("order.status.requested", input.Status), slog.String("actor", input.Actor))
	result, err := s.inner.TransitionOrderStatus(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to transition order", slog.Int64("order.id", input.OrderID))
	}
	if result != nil && result.Entity != nil {
		s.metrics.recordTransition(ctx, result.Entity.Status)
		s.logInfo(ctx, "order transitioned", slog.Int64("order.id", result.Entity.ID), slog.String("status", string(result.Entity.Status)))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, input ordertypes.ListOrdersInput) (*ordertypes.OrderPage, error) {
	ctx, span := s.startSpan(ctx, "Service.ListOrders",
		attribute.Int("page.offset", input.Page.Offset),
		attribute.Int("page.limit", input.Page.Limit),
	)
	defer span.End()

	result, err := s.inner.ListOrders(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.result.count", len(result.Items)), attribute.Int64("order.result.total", result.Total))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID int64) (*ordertypes.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.GetOrder", attribute.Int64("order.id", orderID))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", orderID))
	}
	return result, nil
}

func (s *Service) LookupProduct(ctx context.Context, productID int64) (domain.CatalogEntry, error) {
	ctx, span := s.startSpan(ctx, "Service.LookupProduct", attribute.Int64("product.id", productID))
	defer span.End()

	entry, err := s.inner.LookupProduct(ctx, productID)
	if err != nil {
		return entry, s.handleError(ctx, span, err, "failed to look up product", slog.Int64("product.id", productID))
	}
	span.SetAttributes(attribute.Bool("product.exists", entry.Exists))
	return entry, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) log(ctx context.Context, level slog.Level, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, level, msg, attrs...)
}

// handleError records err on the span. Business rejections are logged at warn
// and counted by kind; anything else is an error.
func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	kind := application.KindOf(err)
	if span != nil {
		span.RecordError(err)
		if kind != "" {
			span.SetAttributes(attribute.String("rejection.kind", kind))
		}
		span.SetStatus(codes.Error, err.Error())
	}
	level := slog.LevelError
	if kind != "" && kind != application.KindStoreUnavailable {
		level = slog.LevelWarn
	}
	if kind != "" {
		attrs = append(attrs, slog.String("rejection.kind", kind))
		s.metrics.recordRejection(ctx, kind)
	}
	s.log(ctx, level, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	ordersPlaced      metric.Int64Counter
	rejections        metric.Int64Counter
	statusTransitions metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("orders.service.orders_placed", metric.WithDescription("Number of orders committed"))
	rejections, _ := m.Int64Counter("orders.service.rejections", metric.WithDescription("Number of rejected order operations by kind"))
	statusTransitions, _ := m.Int64Counter("orders.service.status_transitions", metric.WithDescription("Number of applied order status transitions"))
	return serviceMetrics{
		ordersPlaced:      ordersPlaced,
		rejections:        rejections,
		statusTransitions: statusTransitions,
	}
}

func (m serviceMetrics) recordPlaced(ctx context.Context) {
	addCounter(ctx, m.ordersPlaced, 1)
}

func (m serviceMetrics) recordRejection(ctx context.Context, kind string) {
	addCounter(ctx, m.rejections, 1, attribute.String("rejection.kind", kind))
}

func (m serviceMetrics) recordTransition(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.statusTransitions, 1, attribute.String("order.status", string(status)))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
