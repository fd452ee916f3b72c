package migrations

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the storefront schema. Adapters never migrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&orderRecord{},
		&orderItemRecord{},
		&auditRecord{},
		&idempotencyRecord{},
		&outboxRecord{},
	)
}

// Product schema mirrors the orders persistence adapter. Stock can never go negative.
type productRecord struct {
	ID            int64           `gorm:"primaryKey;column:id"`
	Name          string          `gorm:"column:name;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	StockQuantity int64           `gorm:"column:stock_quantity;not null;check:chk_products_stock_non_negative,stock_quantity >= 0"`
	Available     bool            `gorm:"column:available;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type orderRecord struct {
	ID              int64             `gorm:"primaryKey;column:id"`
	UserID          int64             `gorm:"column:user_id;not null;index"`
	CustomerName    string            `gorm:"column:customer_name;not null"`
	CustomerEmail   string            `gorm:"column:customer_email;not null"`
	CustomerPhone   string            `gorm:"column:customer_phone;not null"`
	ShippingAddress string            `gorm:"column:shipping_address;not null"`
	Notes           string            `gorm:"column:notes"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status          string            `gorm:"column:status;type:varchar(32);not null;index:idx_orders_status_created"`
	CreatedAt       time.Time         `gorm:"column:created_at;not null;index:idx_orders_status_created;index"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`
	Items           []orderItemRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	OrderID   int64           `gorm:"column:order_id;not null;index"`
	ProductID int64           `gorm:"column:product_id;not null;index"`
	Quantity  int64           `gorm:"column:quantity;not null;check:chk_order_items_quantity_positive,quantity > 0"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// Audit rows are append-only.
type auditRecord struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	Actor        string    `gorm:"column:actor;not null"`
	AuditedTable string    `gorm:"column:table_name;type:varchar(64);not null;index:idx_audit_record"`
	RecordID     int64     `gorm:"column:record_id;not null;index:idx_audit_record"`
	OldValue     string    `gorm:"column:old_value"`
	NewValue     string    `gorm:"column:new_value"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (auditRecord) TableName() string { return "audit_log" }

type idempotencyRecord struct {
	UserID      int64     `gorm:"primaryKey;column:user_id;autoIncrement:false"`
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128;not null"`
	OrderID     int64     `gorm:"column:order_id;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (idempotencyRecord) TableName() string { return "order_idempotency_keys" }

type outboxRecord struct {
	ID          string     `gorm:"primaryKey;column:id;size:36"`
	EventType   string     `gorm:"column:event_type;size:128;not null"`
	AggregateID int64      `gorm:"column:aggregate_id;not null"`
	Payload     []byte     `gorm:"column:payload;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null;index"`
	PublishedAt *time.Time `gorm:"column:published_at;index"`
}

func (outboxRecord) TableName() string { return "order_outbox" }
