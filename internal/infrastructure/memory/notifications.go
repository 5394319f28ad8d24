package memory

import (
	"context"
	"sort"
	"strconv"

	"nexus/internal/domain/notification"
)

type NotificationRepository struct {
	s *Store
}

func (r *NotificationRepository) UpsertDeviceToken(ctx context.Context, params notification.RegisterDeviceParams) (*notification.DeviceToken, error) {
	var out notification.DeviceToken
	err := r.s.do(ctx, func(st *state) error {
		now := r.s.timestamp()
		d, ok := st.devices[params.Token]
		if !ok {
			st.nextDeviceID++
			d = &notification.DeviceToken{
				ID:        strconv.FormatInt(st.nextDeviceID, 10),
				Token:     params.Token,
				CreatedAt: now,
			}
			st.devices[params.Token] = d
		}
		d.UserID = params.UserID
		d.DeviceType = params.DeviceType
		d.IsActive = true
		d.LastUsed = now
		out = *d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *NotificationRepository) GetActiveTokensByUserID(ctx context.Context, userID int64) ([]*notification.DeviceToken, error) {
	var out []*notification.DeviceToken
	err := r.s.do(ctx, func(st *state) error {
		for _, d := range st.devices {
			if d.UserID == userID && d.IsActive {
				cp := *d
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].LastUsed.After(out[j].LastUsed) })
	return out, err
}

func (r *NotificationRepository) DeactivateToken(ctx context.Context, token string) error {
	return r.s.do(ctx, func(st *state) error {
		if d, ok := st.devices[token]; ok {
			d.IsActive = false
		}
		return nil
	})
}

func (r *NotificationRepository) ListUsersWithDevices(ctx context.Context) ([]int64, error) {
	seen := make(map[int64]struct{})
	var users []int64
	err := r.s.do(ctx, func(st *state) error {
		for _, d := range st.devices {
			if _, ok := seen[d.UserID]; ok || !d.IsActive {
				continue
			}
			seen[d.UserID] = struct{}{}
			users = append(users, d.UserID)
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, err
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, params notification.RecordParams) (*notification.Notification, error) {
	var out notification.Notification
	err := r.s.do(ctx, func(st *state) error {
		st.nextNotificationID++
		n := &notification.Notification{
			ID:        strconv.FormatInt(st.nextNotificationID, 10),
			UserID:    params.UserID,
			Title:     params.Title,
			Message:   params.Message,
			Kind:      params.Kind,
			Data:      params.Data,
			CreatedAt: r.s.timestamp(),
		}
		st.notifications = append(st.notifications, n)
		out = *n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *NotificationRepository) ListNotifications(ctx context.Context, filter notification.HistoryFilter) ([]*notification.Notification, error) {
	var out []*notification.Notification
	err := r.s.do(ctx, func(st *state) error {
		for i := len(st.notifications) - 1; i >= 0 && len(out) < filter.Limit; i-- {
			n := st.notifications[i]
			if n.UserID != filter.UserID || (filter.Kind != "" && n.Kind != filter.Kind) {
				continue
			}
			cp := *n
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}
