package order

import (
	"time"

	"canteen/internal/snapshot"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPlaced Status = "PLACED"
)

// Type tells immediate orders from pre-orders
type Type string

const (
	TypeNow       Type = "NOW"
	TypeScheduled Type = "SCHEDULED"
)

type Order struct {
	ID           uuid.UUID       `json:"id"`
	ConcessionID int64           `json:"concession_id"`
	CustomerID   string          `json:"customer_id"`
	OrderNumber  int             `json:"order_number"`
	OrderDate    string          `json:"order_date"` // local calendar day the number belongs to
	Type         Type            `json:"type"`
	ScheduledFor *time.Time      `json:"scheduled_for,omitempty"`
	Status       Status          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	Items        []Item          `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Item is one persisted order line. Its snapshot is never rewritten.
type Item struct {
	ID         uuid.UUID                  `json:"id"`
	MenuItemID int64                      `json:"menu_item_id"`
	Name       string                     `json:"name"`
	Quantity   int                        `json:"quantity"`
	UnitPrice  decimal.Decimal            `json:"unit_price"`
	ItemTotal  decimal.Decimal            `json:"item_total"`
	Snapshot   snapshot.OrderItemSnapshot `json:"snapshot"`
}
