// Package push delivers notifications to mobile devices.
package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Message is a device notification.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Sender pushes a message to device tokens. It reports tokens the provider
// no longer recognizes so callers can forget them.
type Sender interface {
	Send(ctx context.Context, tokens []string, msg Message) (stale []string, err error)
}

type multicastAPI interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMSender sends through Firebase Cloud Messaging.
type FCMSender struct {
	client multicastAPI
}

// NewFCMSender initializes a Firebase app from a service-account file.
func NewFCMSender(ctx context.Context, credentialsFile string) (*FCMSender, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}
	return &FCMSender{client: client}, nil
}

func (s *FCMSender) Send(ctx context.Context, tokens []string, msg Message) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("fcm multicast: %w", err)
	}

	var stale []string
	for i, r := range resp.Responses {
		if r != nil && !r.Success && messaging.IsUnregistered(r.Error) {
			stale = append(stale, tokens[i])
		}
	}
	if resp.FailureCount > 0 && resp.SuccessCount == 0 && len(stale) < len(tokens) {
		return stale, fmt.Errorf("fcm: all %d deliveries failed", resp.FailureCount)
	}
	return stale, nil
}

// Noop discards messages. Used when no credentials are configured.
type Noop struct{}

func (Noop) Send(context.Context, []string, Message) ([]string, error) {
	return nil, nil
}
