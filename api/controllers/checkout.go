package controllers

import (
	"net/http"

	"github.com/quickshop/storefront-backend/api/responses"
	checkoutsvc "github.com/quickshop/storefront-backend/internal/checkout"
	"github.com/quickshop/storefront-backend/pkg/logger"
)

// Checkout converts the caller's active cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderView(order))
	}
}
