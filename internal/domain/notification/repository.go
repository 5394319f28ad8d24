package notification

import "context"

// Repository defines the interface for device and notification data access
type Repository interface {
	// UpsertDeviceToken registers a token, reassigning it when another user held it
	UpsertDeviceToken(ctx context.Context, params RegisterDeviceParams) (*DeviceToken, error)
	GetActiveTokensByUserID(ctx context.Context, userID int64) ([]*DeviceToken, error)
	DeactivateToken(ctx context.Context, token string) error

	// ListUsersWithDevices returns the distinct owners of active tokens
	ListUsersWithDevices(ctx context.Context) ([]int64, error)

	CreateNotification(ctx context.Context, params RecordParams) (*Notification, error)

	// ListNotifications returns the newest notifications first
	ListNotifications(ctx context.Context, filter HistoryFilter) ([]*Notification, error)
}
