package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/primefit/storefront/api/responses"
	pkgerrors "github.com/primefit/storefront/pkg/errors"
	"github.com/primefit/storefront/pkg/logger"
)

// EventCartAdded is emitted once per notifier stamp.
const EventCartAdded = "cart.added"

var sseHeartbeat = 25 * time.Second

type cartAddedEvent struct {
	LastMutatedAt time.Time `json:"last_mutated_at"`
	TotalCount    int       `json:"total_count"`
}

// CartEvents streams the session's add stamps as Server-Sent Events. The
// stream ends when the client goes away or the session is ended.
func CartEvents(sessions CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sessionStore(w, r, sessions, logg)
		if !ok {
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		sub := store.Notifier().Subscribe()
		defer sub.Unsubscribe()

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "retry: 3000\n\n")
		flusher.Flush()

		ctx := r.Context()
		if logg != nil {
			logg.Info(ctx, "cart.events.subscribed")
		}

		heartbeat := time.NewTicker(sseHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()
			case stamp, open := <-sub.C:
				if !open {
					return
				}
				payload, err := json.Marshal(cartAddedEvent{LastMutatedAt: stamp, TotalCount: store.TotalCount()})
				if err != nil {
					if logg != nil {
						logg.Error(ctx, "cart.events.encode_failed", err)
					}
					return
				}
				fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", stamp.UnixNano(), EventCartAdded, payload)
				flusher.Flush()
			}
		}
	}
}
