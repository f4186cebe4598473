// Package analytics records tenant-scoped write events. Every event is
// logged and fanned out over the tenant's pub/sub channel so dashboards
// can follow activity live.
package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/growplate/internal/domain"
)

// Publisher delivers a payload to a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type Recorder struct {
	pub       Publisher
	namespace string
	now       func() time.Time
}

// NewRecorder returns a Recorder. pub may be nil, in which case events are
// only logged.
func NewRecorder(pub Publisher, namespace string) *Recorder {
	return &Recorder{pub: pub, namespace: namespace, now: time.Now}
}

// Channel returns the pub/sub channel carrying a tenant's events.
func Channel(namespace string, tenantID uuid.UUID) string {
	return namespace + ":events:" + tenantID.String()
}

// Record logs ev and publishes it. Failures are logged and never returned
// so analytics can't fail the write that produced the event.
func (r *Recorder) Record(ctx context.Context, ev domain.Event) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = r.now().UTC()
	}

	log.Info().
		Str("event", ev.Type).
		Str("tenant_id", ev.TenantID.String()).
		Stringer("actor_id", ev.ActorID).
		Stringer("entity_id", ev.EntityID).
		Msg("analytics event")

	if r.pub == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Msg("analytics: marshal event")
		return
	}

	// The write already happened, so publish even if the request is gone.
	if err := r.pub.Publish(context.WithoutCancel(ctx), Channel(r.namespace, ev.TenantID), payload); err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Str("tenant_id", ev.TenantID.String()).Msg("analytics: publish event")
	}
}
