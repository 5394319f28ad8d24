package firebase

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"nexus/internal/domain/notification"
)

// FCM accepts at most this many tokens per multicast
const batchLimit = 500

// androidChannel must match the channel the mobile app registers
const androidChannel = "nexus_finance"

// multicaster is the part of *messaging.Client the client uses
type multicaster interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Client is the notification.Messenger backed by Firebase Cloud Messaging
type Client struct {
	fcm multicaster
}

var _ notification.Messenger = (*Client)(nil)

// NewClient initializes a Firebase app from a service account file
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	fcm, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging client: %w", err)
	}

	return &Client{fcm: fcm}, nil
}

// Send multicasts push in batches. A batch that fails outright aborts the
// send, but tokens rejected by earlier batches are still reported.
func (c *Client) Send(ctx context.Context, tokens []string, push notification.Push) (*notification.Delivery, error) {
	delivery := &notification.Delivery{}

	for start := 0; start < len(tokens); start += batchLimit {
		batch := tokens[start:min(start+batchLimit, len(tokens))]

		resp, err := c.fcm.SendEachForMulticast(ctx, message(batch, push))
		if err != nil {
			return delivery, fmt.Errorf("failed to send FCM multicast: %w", err)
		}

		delivery.Delivered += resp.SuccessCount
		delivery.Failed += resp.FailureCount
		delivery.Rejected = append(delivery.Rejected, rejected(batch, resp)...)
	}

	if len(tokens) > 0 {
		log.Printf("FCM multicast: %d delivered, %d failed, %d rejected",
			delivery.Delivered, delivery.Failed, len(delivery.Rejected))
	}
	return delivery, nil
}

func message(tokens []string, push notification.Push) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: push.Title,
			Body:  push.Body,
		},
		Data: push.Data,
		Android: &messaging.AndroidConfig{
			Priority: "normal",
			Notification: &messaging.AndroidNotification{
				ChannelID: androidChannel,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}

// rejected picks the tokens FCM will never deliver to again. Other per-token
// errors are transient and only logged.
func rejected(batch []string, resp *messaging.BatchResponse) []string {
	var out []string
	for i, r := range resp.Responses {
		if r == nil || r.Error == nil || i >= len(batch) {
			continue
		}
		if messaging.IsUnregistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
			out = append(out, batch[i])
			continue
		}
		log.Printf("FCM send error at index %d: %v", i, r.Error)
	}
	return out
}
