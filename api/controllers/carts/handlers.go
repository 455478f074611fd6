package carts

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/procurecart/procurecart-backend/api/middleware"
	"github.com/procurecart/procurecart-backend/api/responses"
	"github.com/procurecart/procurecart-backend/api/validators"
	"github.com/procurecart/procurecart-backend/internal/placement"
	"github.com/procurecart/procurecart-backend/internal/replay"
	savedcartsvc "github.com/procurecart/procurecart-backend/internal/savedcarts"
	"github.com/procurecart/procurecart-backend/internal/split"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
	"github.com/procurecart/procurecart-backend/pkg/logger"
)

// AddAddress splits the cart's shipping across one more delivery address.
func AddAddress(engine *split.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID := chi.URLParam(r, "cartID")
		if cartID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cartID is required"))
			return
		}

		var payload AddAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithCartID(r.Context(), cartID)
		cart, err := engine.AddAddress(ctx, cartID, payload.Address.toAddress())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// Replay hydrates the target live cart from a saved cart's snapshot.
func Replay(records savedcartsvc.Service, engine *replay.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID := chi.URLParam(r, "cartID")
		if cartID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cartID is required"))
			return
		}

		var payload ReplayRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		savedCartID, err := uuid.Parse(payload.SavedCartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "savedCartId must be a valid uuid"))
			return
		}

		record, err := records.Get(r.Context(), middleware.OrgIDFromContext(r.Context()), savedCartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithCartID(r.Context(), cartID)
		cart, err := engine.Hydrate(ctx, record, cartID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// PlaceOrder runs the order placement saga across the selected cost centers.
func PlaceOrder(saga *placement.Saga, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID := chi.URLParam(r, "cartID")
		if cartID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cartID is required"))
			return
		}

		var payload PlaceOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithCartID(r.Context(), cartID)
		results, err := saga.Place(ctx, cartID, payload.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPlacementList(results))
	}
}
