package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/api/middleware"
	"github.com/labstock/labstock-backend/api/responses"
	"github.com/labstock/labstock-backend/api/validators"
	"github.com/labstock/labstock-backend/internal/reservations"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/logger"
)

type checkoutLineRequest struct {
	PartID   uuid.UUID `json:"part_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}

type checkoutRequest struct {
	Items []checkoutLineRequest `json:"items" validate:"required,min=1,dive"`
	Notes *string               `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// Checkout converts the caller's batch into stock decrements and ledger entries.
func Checkout(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		callerID, err := profileIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]reservations.CheckoutLine, 0, len(payload.Items))
		for _, item := range payload.Items {
			lines = append(lines, reservations.CheckoutLine{
				PartID:   item.PartID,
				Quantity: item.Quantity,
			})
		}

		result, err := svc.Checkout(r.Context(), callerID, reservations.CheckoutInput{
			Lines: lines,
			Notes: payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func profileIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ProfileIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context invalid")
	}
	return id, nil
}
