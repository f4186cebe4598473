package domain

import (
	"time"

	"github.com/google/uuid"
)

// Analytics event types.
const (
	EventCategoryCreated = "menu.category.created"
	EventCategoryUpdated = "menu.category.updated"
	EventCategoryDeleted = "menu.category.deleted"
	EventItemCreated     = "menu.item.created"
	EventItemUpdated     = "menu.item.updated"
	EventItemDeleted     = "menu.item.deleted"
	EventFeatureUpdated  = "feature.updated"
	EventTenantUpdated   = "tenant.updated"
	EventStaffCreated    = "staff.created"
)

// Event is a tenant-scoped analytics record of a write.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	TenantID   uuid.UUID `json:"tenant_id"`
	ActorID    uuid.UUID `json:"actor_id,omitzero"`
	EntityID   uuid.UUID `json:"entity_id,omitzero"`
	Data       any       `json:"data,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
