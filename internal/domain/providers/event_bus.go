package providers

import (
	"context"

	"github.com/zatekoja/carematch/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to match
// events consumed by downstream systems (dashboards, notifications).
type EventBus interface {
	// Publish publishes an event to all subscribers of a channel
	Publish(ctx context.Context, channel string, event *entities.MatchEvent) error

	// Subscribe subscribes to events on a channel. The subscription ends
	// when the context is cancelled.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.MatchEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// Event channel names.
const (
	// EventChannelMatches carries all match lifecycle events
	EventChannelMatches = "matches:updates"

	// EventChannelPatientPrefix is the prefix for per-patient channels
	EventChannelPatientPrefix = "matches:patient:"
)

// GetPatientChannel returns the event channel for a specific patient.
func GetPatientChannel(patientID string) string {
	return EventChannelPatientPrefix + patientID
}
