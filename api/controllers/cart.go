package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/primefit/storefront/api/middleware"
	"github.com/primefit/storefront/api/responses"
	"github.com/primefit/storefront/api/validators"
	"github.com/primefit/storefront/internal/cart"
	pkgerrors "github.com/primefit/storefront/pkg/errors"
	"github.com/primefit/storefront/pkg/logger"
	"github.com/primefit/storefront/pkg/metrics"
)

// CartSessions hands out the cart of a session.
type CartSessions interface {
	Get(sessionID string) *cart.Store
}

// CartProductResolver turns a product id into the data a cart row needs.
type CartProductResolver interface {
	ResolveCartProduct(ctx context.Context, productID string) (cart.Product, bool, error)
}

// CartOperationRecorder counts applied cart commands.
type CartOperationRecorder interface {
	IncOperation(op string)
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  any    `json:"quantity"`
	Variant   string `json:"variant" validate:"max=120"`
}

type setQuantityRequest struct {
	Quantity any    `json:"quantity" validate:"required"`
	Variant  string `json:"variant" validate:"max=120"`
}

// CartGet returns the session's cart snapshot.
func CartGet(sessions CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sessionStore(w, r, sessions, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartAddItem resolves the product through the catalog and adds it. Unknown
// or inactive products leave the cart untouched.
func CartAddItem(sessions CartSessions, products CartProductResolver, ops CartOperationRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sessionStore(w, r, sessions, logg)
		if !ok {
			return
		}
		if products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variant := validators.SanitizeVariant(payload.Variant)

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"product_id": payload.ProductID, "variant": variant})
		}

		product, found, err := products.ResolveCartProduct(ctx, payload.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !found {
			if logg != nil {
				logg.Info(ctx, "cart.add.skipped")
			}
			responses.WriteSuccess(w, store.Snapshot())
			return
		}

		store.AddItem(product, payload.Quantity, variant)
		recordOp(ops, metrics.OpAdd)
		if logg != nil {
			logg.Info(ctx, "cart.item.added")
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartSetQuantity replaces a row's quantity; zero or less removes the row.
func CartSetQuantity(sessions CartSessions, ops CartOperationRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sessionStore(w, r, sessions, logg)
		if !ok {
			return
		}

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID := chi.URLParam(r, "productId")
		variant := validators.SanitizeVariant(payload.Variant)

		store.SetQuantity(productID, payload.Quantity, variant)
		recordOp(ops, metrics.OpSetQuantity)
		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{"product_id": productID, "variant": variant})
			logg.Info(ctx, "cart.item.quantity_set")
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartRemoveItem drops a row. Missing rows are ignored.
func CartRemoveItem(sessions CartSessions, ops CartOperationRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sessionStore(w, r, sessions, logg)
		if !ok {
			return
		}
		productID := chi.URLParam(r, "productId")
		variant, err := validators.ValidateVariant("variant", r.URL.Query().Get("variant"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.RemoveItem(productID, variant)
		recordOp(ops, metrics.OpRemove)
		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{"product_id": productID, "variant": variant})
			logg.Info(ctx, "cart.item.removed")
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartClear empties the session's cart.
func CartClear(sessions CartSessions, ops CartOperationRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sessionStore(w, r, sessions, logg)
		if !ok {
			return
		}
		store.Clear()
		recordOp(ops, metrics.OpClear)
		if logg != nil {
			logg.Info(r.Context(), "cart.cleared")
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

func sessionStore(w http.ResponseWriter, r *http.Request, sessions CartSessions, logg *logger.Logger) (*cart.Store, bool) {
	if sessions == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart sessions unavailable"))
		return nil, false
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart session missing"))
		return nil, false
	}
	return sessions.Get(sessionID), true
}

func recordOp(ops CartOperationRecorder, op string) {
	if ops != nil {
		ops.IncOperation(op)
	}
}
