package providers

import (
	"context"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// booking events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.BookingEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// Event channel constants
const (
	// EventChannelBookings is the channel carrying every ledger change
	EventChannelBookings = "bookings:updates"

	// EventChannelHospitalPrefix is the prefix for hospital-scoped channels
	EventChannelHospitalPrefix = "hospital:"
)

// GetHospitalChannel returns the channel name for a specific hospital
func GetHospitalChannel(hospitalID string) string {
	return EventChannelHospitalPrefix + hospitalID
}
