package domain

import "github.com/shopspring/decimal"

// CartItem is the stored part of a cart line, ordered by Seq (insertion order).
type CartItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Seq       int64 `json:"seq"`
}

// CartLine is a cart item joined with the current product record.
type CartLine struct {
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Exceeds reports whether the line asks for more than the product has in stock.
func (l CartLine) Exceeds() bool {
	return l.Quantity > l.Product.StockCount
}

type Cart struct {
	Session Session         `json:"session"`
	Lines   []CartLine      `json:"lines"`
	Total   decimal.Decimal `json:"total"`
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// NewCart computes subtotals from current prices and the grand total.
func NewCart(s Session, lines []CartLine) *Cart {
	total := decimal.Zero
	for i := range lines {
		lines[i].Subtotal = lines[i].Product.Price.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
		total = total.Add(lines[i].Subtotal)
	}
	return &Cart{Session: s, Lines: lines, Total: total}
}
