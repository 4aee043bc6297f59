package slack

import (
	"context"
	"strings"
	"unicode"

	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/slack-go/slack/slackevents"
)

// UserID maps a Slack member onto the account id used by plans and posts
func UserID(slackUser string) string {
	return "slack:" + slackUser
}

// MessageHandler routes app mentions to the matching command
type MessageHandler struct {
	botID    string
	commands *CommandHandler
	log      *logger.Logger
}

func NewMessageHandler(botID string, commands *CommandHandler, log *logger.Logger) *MessageHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &MessageHandler{botID: botID, commands: commands, log: log}
}

func (h *MessageHandler) HandleAppMention(ctx context.Context, event *slackevents.AppMentionEvent) error {
	if event.BotID != "" || event.User == "" || event.User == h.botID {
		return nil
	}

	text := strings.TrimSpace(strings.Replace(event.Text, "<@"+h.botID+">", "", 1))
	command, args := splitCommand(text)
	userID := UserID(event.User)

	h.log.Debug("app mention", "user_id", userID, "command", command)

	switch command {
	case "", "help":
		return h.commands.Help(ctx, event.Channel)
	case "plan", "usage":
		return h.commands.Plan(ctx, event.Channel, userID)
	case "upgrade", "downgrade":
		return h.commands.ChangePlan(ctx, event.Channel, userID, args)
	case "generate", "write":
		return h.commands.Generate(ctx, event.Channel, userID, args)
	case "train":
		return h.commands.Train(ctx, event.Channel, userID, args)
	case "top":
		return h.commands.TopPosts(ctx, event.Channel, userID)
	case "patterns":
		return h.commands.Patterns(ctx, event.Channel, userID)
	case "stats":
		return h.commands.Stats(ctx, event.Channel, userID)
	default:
		return h.commands.Unknown(ctx, event.Channel, command)
	}
}

// splitCommand lowercases the first word and keeps the rest of the text as typed
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return strings.ToLower(text), ""
	}
	return strings.ToLower(text[:i]), strings.TrimSpace(text[i:])
}
