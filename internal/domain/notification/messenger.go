package notification

import (
	"context"
	"errors"
)

// ErrNoDelivery is returned when a user has active devices but none of them
// accepted the push
var ErrNoDelivery = errors.New("no device accepted the notification")

// Push is one notification fanned out to every device of a user
type Push struct {
	Title string
	Body  string
	Data  map[string]string
}

// Delivery reports the outcome of a fan-out. Rejected holds tokens the
// provider reported as permanently invalid.
type Delivery struct {
	Delivered int
	Failed    int
	Rejected  []string
}

// Messenger delivers pushes to device tokens. Implemented by the FCM client.
type Messenger interface {
	Send(ctx context.Context, tokens []string, push Push) (*Delivery, error)
}
