package service

import (
	"context"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// fcmPushSender delivers push notifications through Firebase Cloud
// Messaging. Users subscribe their devices to a per-user topic; the backend
// only needs the user id.
type fcmPushSender struct {
	client *messaging.Client
}

func NewFCMPushSender(ctx context.Context, credentialsFile string) (PushSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize fcm client: %w", err)
	}
	return &fcmPushSender{client: client}, nil
}

func (s *fcmPushSender) Send(ctx context.Context, userID int32, title, message string, data map[string]string) error {
	msg := &messaging.Message{
		Topic: "user-" + strconv.Itoa(int(userID)),
		Notification: &messaging.Notification{
			Title: title,
			Body:  message,
		},
		Data: data,
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("send push message: %w", err)
	}
	return nil
}
