package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalesReport struct {
	Since              time.Time       `json:"since"`
	Orders             int64           `json:"orders"`
	Products           int64           `json:"products"`
	Customers          int64           `json:"customers"`
	TotalSales         decimal.Decimal `json:"total_sales"`
	AveragePerCustomer decimal.Decimal `json:"average_per_customer"`
}

type ProductRank struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Score     int64  `json:"score"`
}

type TopProducts struct {
	ByOrders []ProductRank `json:"by_orders"`
	ByViews  []ProductRank `json:"by_views"`
}
