package controllers

import (
	"net/http"

	"github.com/primefit/storefront/api/middleware"
	"github.com/primefit/storefront/api/responses"
	"github.com/primefit/storefront/internal/checkout"
	pkgerrors "github.com/primefit/storefront/pkg/errors"
	"github.com/primefit/storefront/pkg/logger"
	"github.com/primefit/storefront/pkg/metrics"
)

// CheckoutSummary returns the WhatsApp hand-off for the current cart.
func CheckoutSummary(sessions CartSessions, svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		store, ok := sessionStore(w, r, sessions, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, svc.Summarize(store.Snapshot()))
	}
}

// CheckoutRequest announces the order request and returns the hand-off. The
// cart is left as is; the shopper clears it after sending the message.
func CheckoutRequest(sessions CartSessions, svc checkout.Service, ops CartOperationRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		store, ok := sessionStore(w, r, sessions, logg)
		if !ok {
			return
		}

		summary, err := svc.Request(r.Context(), middleware.SessionIDFromContext(r.Context()), store.Snapshot())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recordOp(ops, metrics.OpCheckout)
		responses.WriteSuccessStatus(w, http.StatusAccepted, summary)
	}
}
