package notification

import (
	"errors"
	"time"
)

// Delivery kinds recorded with each sent notification
const (
	KindDigest    = "digest"
	KindRecurring = "recurring"
	KindGeneral   = "general"
)

var validKinds = map[string]struct{}{
	KindDigest:    {},
	KindRecurring: {},
	KindGeneral:   {},
}

var validDeviceTypes = map[string]struct{}{
	"ios":     {},
	"android": {},
	"web":     {},
}

// Domain errors
var (
	ErrDeviceTokenNotFound = errors.New("device token not found")
	ErrInvalidDeviceType   = errors.New("device type must be 'ios', 'android' or 'web'")
	ErrInvalidToken        = errors.New("device token is required")
	ErrTokenTooLong        = errors.New("device token must be at most 4096 characters")
	ErrInvalidKind         = errors.New("kind must be 'digest', 'recurring' or 'general'")
)

const maxTokenLength = 4096

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// DeviceToken is a push token a user registered to receive digests
type DeviceToken struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Token      string    `json:"token"`
	DeviceType string    `json:"device_type"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsed   time.Time `json:"last_used"`
}

// Notification is the record kept for every push sent to a user
type Notification struct {
	ID        string            `json:"id"`
	UserID    int64             `json:"-"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Kind      string            `json:"kind"`
	Data      map[string]string `json:"data"`
	CreatedAt time.Time         `json:"created_at"`
}

// RegisterDeviceParams contains parameters for registering a device
type RegisterDeviceParams struct {
	UserID     int64
	Token      string
	DeviceType string
}

func (p RegisterDeviceParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.Token == "" {
		return ErrInvalidToken
	}
	if len(p.Token) > maxTokenLength {
		return ErrTokenTooLong
	}
	if _, ok := validDeviceTypes[p.DeviceType]; !ok {
		return ErrInvalidDeviceType
	}
	return nil
}

// RecordParams contains parameters for storing a sent notification
type RecordParams struct {
	UserID  int64
	Title   string
	Message string
	Kind    string
	Data    map[string]string
}

// HistoryFilter narrows a user's notification history. An empty Kind matches
// every kind.
type HistoryFilter struct {
	UserID int64
	Kind   string
	Limit  int
}

// Normalize validates the filter and clamps Limit into 1..100, defaulting to 20
func (f *HistoryFilter) Normalize() error {
	if f.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if f.Kind != "" {
		if _, ok := validKinds[f.Kind]; !ok {
			return ErrInvalidKind
		}
	}
	switch {
	case f.Limit <= 0:
		f.Limit = defaultHistoryLimit
	case f.Limit > maxHistoryLimit:
		f.Limit = maxHistoryLimit
	}
	return nil
}
