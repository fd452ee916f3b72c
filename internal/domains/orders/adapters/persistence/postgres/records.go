package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

type productRecord struct {
	ID            int64           `gorm:"primaryKey;column:id"`
	Name          string          `gorm:"column:name"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	StockQuantity int64           `gorm:"column:stock_quantity"`
	Available     bool            `gorm:"column:available"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type orderRecord struct {
	ID              int64             `gorm:"primaryKey;column:id"`
	UserID          int64             `gorm:"column:user_id"`
	CustomerName    string            `gorm:"column:customer_name"`
	CustomerEmail   string            `gorm:"column:customer_email"`
	CustomerPhone   string            `gorm:"column:customer_phone"`
	ShippingAddress string            `gorm:"column:shipping_address"`
	Notes           string            `gorm:"column:notes"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2)"`
	Status          string            `gorm:"column:status"`
	CreatedAt       time.Time         `gorm:"column:created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`
	Items           []orderItemRecord `gorm:"foreignKey:OrderID"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	OrderID   int64           `gorm:"column:order_id"`
	ProductID int64           `gorm:"column:product_id"`
	Quantity  int64           `gorm:"column:quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
}

func (orderItemRecord) TableName() string { return "order_items" }

type auditRecord struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	Actor        string    `gorm:"column:actor"`
	AuditedTable string    `gorm:"column:table_name"`
	RecordID     int64     `gorm:"column:record_id"`
	OldValue     string    `gorm:"column:old_value"`
	NewValue     string    `gorm:"column:new_value"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (auditRecord) TableName() string { return "audit_log" }

type idempotencyRecord struct {
	UserID      int64     `gorm:"primaryKey;column:user_id;autoIncrement:false"`
	Key         string    `gorm:"primaryKey;column:key"`
	RequestHash string    `gorm:"column:request_hash"`
	OrderID     int64     `gorm:"column:order_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (idempotencyRecord) TableName() string { return "order_idempotency_keys" }

type outboxRecord struct {
	ID          string     `gorm:"primaryKey;column:id"`
	EventType   string     `gorm:"column:event_type"`
	AggregateID int64      `gorm:"column:aggregate_id"`
	Payload     []byte     `gorm:"column:payload"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxRecord) TableName() string { return "order_outbox" }

func (r productRecord) toDomain() domain.Product {
	return domain.Product{
		ID:            r.ID,
		Name:          r.Name,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
		Available:     r.Available,
	}
}

func toOrderRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:              order.ID,
		UserID:          order.UserID,
		CustomerName:    order.Contact.Name,
		CustomerEmail:   order.Contact.Email,
		CustomerPhone:   order.Contact.Phone,
		ShippingAddress: order.ShippingAddress,
		Notes:           order.Notes,
		TotalAmount:     order.TotalAmount,
		Status:          string(order.Status),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.CreatedAt,
	}
}

func (r orderRecord) toProjection() *types.OrderProjection {
	items := make([]domain.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.LineItem{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	order := &domain.Order{
		ID:     r.ID,
		UserID: r.UserID,
		Contact: domain.Contact{
			Name:  r.CustomerName,
			Email: r.CustomerEmail,
			Phone: r.CustomerPhone,
		},
		ShippingAddress: r.ShippingAddress,
		Notes:           r.Notes,
		TotalAmount:     r.TotalAmount,
		Status:          domain.Status(r.Status),
		CreatedAt:       r.CreatedAt,
		Items:           items,
	}
	return types.NewOrderProjection(order, r.CreatedAt, r.UpdatedAt)
}

func toAuditRecord(entry domain.AuditEntry) auditRecord {
	return auditRecord{
		Actor:        entry.Actor,
		AuditedTable: entry.Table,
		RecordID:     entry.RecordID,
		OldValue:     entry.OldValue,
		NewValue:     entry.NewValue,
		CreatedAt:    entry.CreatedAt,
	}
}

func (r auditRecord) toDomain() domain.AuditEntry {
	return domain.AuditEntry{
		ID:        r.ID,
		Actor:     r.Actor,
		Table:     r.AuditedTable,
		RecordID:  r.RecordID,
		OldValue:  r.OldValue,
		NewValue:  r.NewValue,
		CreatedAt: r.CreatedAt,
	}
}

func toOutboxRecord(event domain.Event) outboxRecord {
	return outboxRecord{
		ID:          event.ID,
		EventType:   string(event.Type),
		AggregateID: event.AggregateID,
		Payload:     event.Payload,
		CreatedAt:   event.OccurredAt,
	}
}

func (r outboxRecord) toDomain() domain.Event {
	return domain.Event{
		ID:          r.ID,
		Type:        domain.EventType(r.EventType),
		AggregateID: r.AggregateID,
		Payload:     r.Payload,
		OccurredAt:  r.CreatedAt,
	}
}

func toPortRecord(r idempotencyRecord) *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		UserID:      r.UserID,
		Key:         r.Key,
		RequestHash: r.RequestHash,
		OrderID:     r.OrderID,
		CreatedAt:   r.CreatedAt,
	}
}
