package controllers

import (
	"net/http"

	"github.com/sangambaral17/TradeMaster/api/responses"
	"github.com/sangambaral17/TradeMaster/api/validators"
	"github.com/sangambaral17/TradeMaster/internal/checkout"
	"github.com/sangambaral17/TradeMaster/pkg/logger"
)

type checkoutLineRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type checkoutRequest struct {
	Lines         []checkoutLineRequest `json:"lines" validate:"required,min=1,max=200,dive"`
	PaymentMethod string                `json:"payment_method,omitempty"`
	CustomerID    *int64                `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
}

// Checkout commits a sale directly from a list of lines. Prices always come
// from the catalog.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := tenderRequest{PaymentMethod: payload.PaymentMethod}.paymentMethod()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines := make([]checkout.Line, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, checkout.Line{ProductID: line.ProductID, Quantity: line.Quantity})
		}
		sale, err := svc.Commit(r.Context(), checkout.Request{
			Lines:         lines,
			PaymentMethod: method,
			CustomerID:    payload.CustomerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
	}
}
