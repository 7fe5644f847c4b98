package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/quickshop/storefront-backend/internal/orders"
	"github.com/quickshop/storefront-backend/pkg/db/models"
)

// ProductView is the catalog snapshot embedded in cart and order payloads.
type ProductView struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	ImageURL      *string   `json:"image_url,omitempty"`
	PriceCents    int       `json:"price_cents"`
	StockQuantity int       `json:"stock_quantity"`
}

type CartItemView struct {
	ID        uuid.UUID    `json:"id"`
	ProductID uuid.UUID    `json:"product_id"`
	Quantity  int          `json:"quantity"`
	Product   *ProductView `json:"product,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type CartView struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Status    string         `json:"status"`
	Items     []CartItemView `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type OrderItemView struct {
	ID             uuid.UUID    `json:"id"`
	ProductID      uuid.UUID    `json:"product_id"`
	Quantity       int          `json:"quantity"`
	UnitPriceCents int          `json:"unit_price_cents"`
	Product        *ProductView `json:"product,omitempty"`
}

type OrderView struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	TotalCents int             `json:"total_cents"`
	Items      []OrderItemView `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
}

type OrderHistoryView struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func newProductView(product *models.Product) *ProductView {
	if product == nil {
		return nil
	}
	return &ProductView{
		ID:            product.ID,
		Name:          product.Name,
		Category:      product.Category,
		ImageURL:      product.ImageURL,
		PriceCents:    product.PriceCents,
		StockQuantity: product.StockQuantity,
	}
}

func newCartView(record *models.Cart) CartView {
	items := make([]CartItemView, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, CartItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Product:   newProductView(item.Product),
			CreatedAt: item.CreatedAt,
		})
	}
	return CartView{
		ID:        record.ID,
		UserID:    record.UserID,
		Status:    record.Status.String(),
		Items:     items,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func newOrderView(order *models.Order) OrderView {
	items := make([]OrderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemView{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			Product:        newProductView(item.Product),
		})
	}
	return OrderView{
		ID:         order.ID,
		UserID:     order.UserID,
		TotalCents: order.TotalCents,
		Items:      items,
		CreatedAt:  order.CreatedAt,
	}
}

func newOrderHistoryView(page *orders.HistoryPage) OrderHistoryView {
	views := make([]OrderView, 0, len(page.Orders))
	for i := range page.Orders {
		views = append(views, newOrderView(&page.Orders[i]))
	}
	return OrderHistoryView{Orders: views, NextCursor: page.NextCursor}
}
