package firebase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"firebase.google.com/go/v4/messaging"

	"nexus/internal/domain/notification"
)

type MockMulticaster struct {
	SendFunc func(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
	sent     []*messaging.MulticastMessage
}

func (m *MockMulticaster) SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	m.sent = append(m.sent, message)
	return m.SendFunc(ctx, message)
}

func allOK(_ context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	resp := &messaging.BatchResponse{SuccessCount: len(message.Tokens)}
	for range message.Tokens {
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true})
	}
	return resp, nil
}

func tokens(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("tok-%d", i)
	}
	return out
}

var digestPush = notification.Push{
	Title: "Weekly cash summary",
	Body:  "Net +1,200.00 over the last 7 days",
	Data:  map[string]string{"route": notification.KindDigest},
}

func TestSend_Batches(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		batches []int
	}{
		{"no tokens", 0, nil},
		{"single partial", 3, []int{3}},
		{"exact limit", 500, []int{500}},
		{"one over", 501, []int{500, 1}},
		{"several", 1250, []int{500, 500, 250}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockMulticaster{SendFunc: allOK}
			c := &Client{fcm: mock}

			delivery, err := c.Send(context.Background(), tokens(tt.count), digestPush)
			if err != nil {
				t.Fatalf("Send() unexpected error: %v", err)
			}
			if delivery.Delivered != tt.count {
				t.Errorf("delivered %d, want %d", delivery.Delivered, tt.count)
			}
			if len(mock.sent) != len(tt.batches) {
				t.Fatalf("sent %d batches, want %d", len(mock.sent), len(tt.batches))
			}
			for i, m := range mock.sent {
				if len(m.Tokens) != tt.batches[i] {
					t.Errorf("batch %d has %d tokens, want %d", i, len(m.Tokens), tt.batches[i])
				}
			}
		})
	}
}

func TestSend_Message(t *testing.T) {
	mock := &MockMulticaster{SendFunc: allOK}
	if _, err := (&Client{fcm: mock}).Send(context.Background(), tokens(1), digestPush); err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	m := mock.sent[0]
	if m.Notification.Title != digestPush.Title || m.Notification.Body != digestPush.Body {
		t.Errorf("notification = %+v", m.Notification)
	}
	if m.Data["route"] != notification.KindDigest {
		t.Errorf("route = %q, want %q", m.Data["route"], notification.KindDigest)
	}
	if m.Android == nil || m.Android.Notification.ChannelID != androidChannel {
		t.Errorf("android config = %+v", m.Android)
	}
	if m.APNS == nil || m.APNS.Payload.Aps.Sound != "default" {
		t.Errorf("apns config = %+v", m.APNS)
	}
}

func TestSend_Failures(t *testing.T) {
	sendErr := errors.New("unavailable")

	t.Run("transport error keeps earlier counts", func(t *testing.T) {
		calls := 0
		mock := &MockMulticaster{SendFunc: func(ctx context.Context, m *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
			calls++
			if calls == 2 {
				return nil, sendErr
			}
			return allOK(ctx, m)
		}}

		delivery, err := (&Client{fcm: mock}).Send(context.Background(), tokens(600), digestPush)
		if !errors.Is(err, sendErr) {
			t.Errorf("Send() error = %v, want wrapped %v", err, sendErr)
		}
		if delivery == nil || delivery.Delivered != 500 {
			t.Errorf("delivery = %+v, want 500 delivered from the first batch", delivery)
		}
	})

	t.Run("transient per-token errors are not rejections", func(t *testing.T) {
		mock := &MockMulticaster{SendFunc: func(context.Context, *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
			return &messaging.BatchResponse{
				SuccessCount: 1,
				FailureCount: 1,
				Responses: []*messaging.SendResponse{
					{Success: true},
					{Error: sendErr},
				},
			}, nil
		}}

		delivery, err := (&Client{fcm: mock}).Send(context.Background(), tokens(2), digestPush)
		if err != nil {
			t.Fatalf("Send() unexpected error: %v", err)
		}
		if delivery.Delivered != 1 || delivery.Failed != 1 || len(delivery.Rejected) != 0 {
			t.Errorf("delivery = %+v", delivery)
		}
	})
}
