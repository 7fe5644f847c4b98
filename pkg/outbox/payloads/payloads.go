package payloads

import "github.com/google/uuid"

// LowStockEvent notifies the sink that a product crossed its restock threshold.
type LowStockEvent struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	CurrentStock int       `json:"current_stock"`
	Threshold    int       `json:"threshold"`
}

// OrderCreatedEvent announces a committed checkout.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	UserID     uuid.UUID `json:"user_id"`
	TotalCents int       `json:"total_cents"`
}

// DailySalesReportRow aggregates one product's sales for the reported day.
type DailySalesReportRow struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	QuantitySold int       `json:"quantity_sold"`
	RevenueCents int       `json:"revenue_cents"`
}

// DailySalesReportEvent carries the aggregated sales for one calendar day.
type DailySalesReportEvent struct {
	Date string                `json:"date"`
	Rows []DailySalesReportRow `json:"rows"`
}
