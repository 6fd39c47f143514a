package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/speedsterx/storefront-backend/api/responses"
	"github.com/speedsterx/storefront-backend/api/validators"
	ordersvc "github.com/speedsterx/storefront-backend/internal/orders"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
	"github.com/speedsterx/storefront-backend/pkg/logger"
)

type paymentWebhookRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Event   string    `json:"event" validate:"required"`
}

// PaymentWebhook confirms payment for a pending order. There is no gateway
// signature to verify yet; the handler only accepts the capture event and is
// idempotent so retries are safe.
func PaymentWebhook(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var body paymentWebhookRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if body.Event != "payment.captured" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unsupported event"))
			return
		}

		order, err := svc.MarkPaid(r.Context(), body.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
