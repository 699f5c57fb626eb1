package services

import (
	"context"
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// APNsPusher sends push notifications through Apple's push service
type APNsPusher struct {
	client *apns2.Client
	topic  string
}

// NewAPNsPusher loads a .p12 certificate and connects to the production or
// development gateway
func NewAPNsPusher(certFile, password, topic string, production bool) (*APNsPusher, error) {
	cert, err := certificate.FromP12File(certFile, password)
	if err != nil {
		return nil, fmt.Errorf("failed to load apns certificate: %w", err)
	}

	client := apns2.NewClient(cert)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return NewAPNsPusherWithClient(client, topic), nil
}

// NewAPNsPusherWithClient wraps an already configured client
func NewAPNsPusherWithClient(client *apns2.Client, topic string) *APNsPusher {
	return &APNsPusher{client: client, topic: topic}
}

// Push implements Pusher
func (p *APNsPusher) Push(ctx context.Context, deviceToken string, msg WSMessage) error {
	body := msg.Message
	if body == "" {
		body = "New signal"
	}

	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload: payload.NewPayload().
			AlertTitle("DTP").
			AlertBody(body).
			Sound("default").
			Custom("type", msg.Type).
			Custom("chat_id", msg.ChatID),
	}

	res, err := p.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push rejected: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}
