package services

import (
	"context"
	"log"

	"firebase.google.com/go/messaging"
)

// Notifier pushes a notification to a single device. Implemented by Firebase
// Cloud Messaging in production; tests swap in a fake.
type Notifier interface {
	Push(deviceToken, title, body string) error
}

type notificationService struct {
	messagingClient *messaging.Client
}

func NewNotificationService(client *messaging.Client) Notifier {
	return &notificationService{messagingClient: client}
}

func (s *notificationService) Push(deviceToken, title, body string) error {
	if s.messagingClient == nil || deviceToken == "" {
		return nil
	}
	message := &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}
	_, err := s.messagingClient.Send(context.Background(), message)
	if err != nil {
		log.Println("Error sending push notification:", err)
		return err
	}
	return nil
}
