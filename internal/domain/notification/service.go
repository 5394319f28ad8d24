package notification

import (
	"context"
	"errors"
	"log"
)

// Service registers devices and delivers pushes to them
type Service struct {
	repo      Repository
	messenger Messenger
}

// NewService creates a new notification service. messenger may be nil, in
// which case pushes are only recorded.
func NewService(repo Repository, messenger Messenger) *Service {
	return &Service{repo: repo, messenger: messenger}
}

// RegisterDevice registers a device token for the authenticated user.
// If the token already belongs to another user, it is reassigned.
func (s *Service) RegisterDevice(ctx context.Context, params RegisterDeviceParams) (*DeviceToken, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return s.repo.UpsertDeviceToken(ctx, params)
}

// History returns the pushes recorded for a user, newest first
func (s *Service) History(ctx context.Context, filter HistoryFilter) ([]*Notification, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}
	return s.repo.ListNotifications(ctx, filter)
}

// UsersWithDevices lists users that can receive pushes
func (s *Service) UsersWithDevices(ctx context.Context) ([]int64, error) {
	return s.repo.ListUsersWithDevices(ctx)
}

// SendToUser pushes a message to every active device of userID and records
// it. A user without devices is not an error.
func (s *Service) SendToUser(ctx context.Context, userID int64, title, body string, data map[string]string) error {
	if userID <= 0 {
		return errors.New("valid user ID is required")
	}

	tokens, err := s.repo.GetActiveTokensByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		log.Printf("No active device tokens for user %d", userID)
		return nil
	}

	if data == nil {
		data = make(map[string]string)
	}
	kind := data["route"]
	if kind == "" {
		kind = KindGeneral
		data["route"] = kind
	}

	if s.messenger != nil {
		if err := s.deliver(ctx, userID, tokens, Push{Title: title, Body: body, Data: data}); err != nil {
			return err
		}
	}

	_, err = s.repo.CreateNotification(ctx, RecordParams{
		UserID:  userID,
		Title:   title,
		Message: body,
		Kind:    kind,
		Data:    data,
	})
	if err != nil {
		log.Printf("Error storing notification for user %d: %v", userID, err)
	}
	return nil
}

// deliver sends push and retires every token the provider rejected, even
// when the send as a whole failed
func (s *Service) deliver(ctx context.Context, userID int64, tokens []*DeviceToken, push Push) error {
	tokenStrings := make([]string, len(tokens))
	for i, t := range tokens {
		tokenStrings[i] = t.Token
	}

	delivery, err := s.messenger.Send(ctx, tokenStrings, push)
	if delivery != nil {
		for _, token := range delivery.Rejected {
			if derr := s.repo.DeactivateToken(ctx, token); derr != nil {
				log.Printf("Failed to deactivate device token for user %d: %v", userID, derr)
			}
		}
		if len(delivery.Rejected) > 0 {
			log.Printf("Deactivated %d device tokens for user %d", len(delivery.Rejected), userID)
		}
	}
	if err != nil {
		return err
	}
	if delivery == nil || delivery.Delivered == 0 {
		return ErrNoDelivery
	}
	return nil
}
