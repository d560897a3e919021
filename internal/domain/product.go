package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	StockCount  int             `json:"stock_count"`
	Description string          `json:"description"`
}

func (p Product) InStock() bool {
	return p.StockCount > 0
}
