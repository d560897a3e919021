package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              int64           `json:"id"`
	CustomerID      int64           `json:"customer_id"`
	SessionNo       int64           `json:"session_no"`
	Date            time.Time       `json:"date"`
	ShippingAddress string          `json:"shipping_address"`
	Total           decimal.Decimal `json:"total"`
	Lines           []OrderLine     `json:"lines,omitempty"`
}

// OrderLine keeps the unit price captured at checkout, not a live product price.
type OrderLine struct {
	OrderID     int64           `json:"order_id"`
	LineNo      int             `json:"line_no"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Category    string          `json:"category,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (l OrderLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Receipt is what a successful checkout returns.
type Receipt struct {
	OrderID int64           `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

// OrderPlaced is the event written to the outbox on checkout.
type OrderPlaced struct {
	OrderID    int64           `json:"order_id"`
	CustomerID int64           `json:"customer_id"`
	SessionNo  int64           `json:"session_no"`
	Total      decimal.Decimal `json:"total"`
	PlacedAt   time.Time       `json:"placed_at"`
	Lines      []OrderLine     `json:"lines"`
}

const EventOrderPlaced = "order.placed"
