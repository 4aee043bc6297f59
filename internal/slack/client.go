package slack

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Messenger posts plain text into a channel and returns the message timestamp
type Messenger interface {
	PostMessage(ctx context.Context, channelID, text string) (string, error)
}

type Client struct {
	api   *slack.Client
	botID string
}

// NewClient authenticates the bot token and resolves the bot's own user id
func NewClient(ctx context.Context, token string) (*Client, error) {
	api := slack.New(token)

	authTest, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with Slack: %w", err)
	}

	return &Client{
		api:   api,
		botID: authTest.UserID,
	}, nil
}

func (c *Client) BotID() string {
	return c.botID
}

func (c *Client) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	_, timestamp, err := c.api.PostMessageContext(ctx,
		channelID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return "", fmt.Errorf("failed to post message: %w", err)
	}
	return timestamp, nil
}
