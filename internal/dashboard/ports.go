package dashboard

import (
	"context"

	"github.com/AnkitRajMaurya/weather-project/internal/weather"
)

// LocationReason classifies why the host could not provide a position.
type LocationReason int

const (
	PermissionDenied LocationReason = iota + 1
	PositionUnavailable
	LocationTimeout
)

// LocationError is a typed geolocation failure. Every reason degrades to
// the default place rather than an error page.
type LocationError struct {
	Reason LocationReason
}

func (e *LocationError) Error() string {
	switch e.Reason {
	case PermissionDenied:
		return "location access denied"
	case PositionUnavailable:
		return "location unavailable"
	case LocationTimeout:
		return "location request timed out"
	default:
		return "location error"
	}
}

// Locator is the host-platform geolocation capability. Implementations
// return a coordinate or a *LocationError.
type Locator interface {
	Locate(ctx context.Context) (weather.Coordinate, error)
}

// LocatorFunc adapts a function to the Locator interface. The HTTP
// adapter uses it to hand a browser-reported geolocation outcome to the
// controller.
type LocatorFunc func(ctx context.Context) (weather.Coordinate, error)

func (f LocatorFunc) Locate(ctx context.Context) (weather.Coordinate, error) {
	return f(ctx)
}

// Notification severities, mirroring the dashboard's toast styles.
const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notifier receives user-visible messages. The HTTP adapter keeps the
// latest ones for the front end to poll.
type Notifier interface {
	Notify(level, message string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(level, message string) {}
