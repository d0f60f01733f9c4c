package fcm

import (
	"context"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// multicastLimit is the FCM cap on tokens per multicast request.
const multicastLimit = 500

type Client struct {
	client *messaging.Client
	log    *zap.Logger
}

// NewClient initializes Firebase Cloud Messaging. With no credentials file and
// no FIREBASE_CREDENTIALS_JSON the client is returned disabled.
func NewClient(ctx context.Context, credPath string, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var opt option.ClientOption
	switch {
	case credPath != "":
		opt = option.WithCredentialsFile(credPath)
	case os.Getenv("FIREBASE_CREDENTIALS_JSON") != "":
		opt = option.WithCredentialsJSON([]byte(os.Getenv("FIREBASE_CREDENTIALS_JSON")))
	default:
		log.Warn("no firebase credentials found, push alerts disabled")
		return &Client{log: log}, nil
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, errors.Wrap(err, "initialize firebase app")
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get messaging client")
	}

	log.Info("firebase cloud messaging initialized")
	return &Client{client: client, log: log}, nil
}

// SendMulticast sends one notification to every token, batching at the FCM
// request limit. Per-token failures are logged, not returned.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if c.client == nil {
		return errors.New("FCM client not initialized")
	}

	for start := 0; start < len(tokens); start += multicastLimit {
		end := start + multicastLimit
		if end > len(tokens) {
			end = len(tokens)
		}
		resp, err := c.client.SendEachForMulticast(ctx, newMulticast(tokens[start:end], title, body, data))
		if err != nil {
			return errors.Wrap(err, "send multicast")
		}
		c.log.Info("multicast sent",
			zap.Int("success", resp.SuccessCount),
			zap.Int("failure", resp.FailureCount),
		)
	}
	return nil
}

// IsEnabled returns true if FCM client is initialized
func (c *Client) IsEnabled() bool {
	return c.client != nil
}

func newMulticast(tokens []string, title, body string, data map[string]string) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "prepump_alerts",
				Priority:  messaging.PriorityHigh,
			},
		},
	}
}
