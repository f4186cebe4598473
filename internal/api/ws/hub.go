// Package ws streams tenant events to dashboard clients over WebSocket.
package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/growplate/internal/analytics"
	"github.com/gosuda/growplate/internal/server/middleware"
)

// Subscriber streams payloads published on a channel.
// *redis.Store satisfies this interface.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Hub manages WebSocket connections backed by pub/sub.
type Hub struct {
	sub       Subscriber
	namespace string
}

// NewHub creates a hub reading the event channels under namespace.
func NewHub(sub Subscriber, namespace string) *Hub {
	return &Hub{sub: sub, namespace: namespace}
}

// ServeEvents upgrades the request and forwards every analytics event of
// the request's tenant to the client until either side goes away. It must
// be mounted behind ResolveTenant and Auth.
func (h *Hub) ServeEvents(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "tenant not found")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Clients only listen; CloseRead cancels ctx once they disconnect.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.sub.Subscribe(ctx, analytics.Channel(h.namespace, tenantID))
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID.String()).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	log.Debug().Str("tenant_id", tenantID.String()).Msg("dashboard stream opened")

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
