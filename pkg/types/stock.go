package types

import "github.com/google/uuid"

// StockShortage is attached as error details when a requested quantity
// exceeds the available stock.
type StockShortage struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Available   int       `json:"available"`
	Requested   int       `json:"requested"`
}
