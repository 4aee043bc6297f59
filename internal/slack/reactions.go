package slack

import (
	"context"
	"strings"
	"sync"

	"github.com/shubh-37/ghostwriter/internal/engagement"
	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/shubh-37/ghostwriter/internal/models"
	"github.com/slack-go/slack/slackevents"
)

const maxTrackedMessages = 1000

// reactionView marks reactions that count as a view rather than an interaction
const reactionView models.EngagementType = "view"

var reactionEngagement = map[string]models.EngagementType{
	"+1":             models.EngagementLike,
	"thumbsup":       models.EngagementLike,
	"heart":          models.EngagementLike,
	"fire":           models.EngagementLike,
	"speech_balloon": models.EngagementComment,
	"repeat":         models.EngagementShare,
	"link":           models.EngagementClick,
	"eyes":           reactionView,
}

// EngagementForReaction maps a reaction name onto an engagement type. Skin tone
// variants map like their base reaction.
func EngagementForReaction(reaction string) (models.EngagementType, bool) {
	name, _, _ := strings.Cut(reaction, "::")
	t, ok := reactionEngagement[name]
	return t, ok
}

type trackedPost struct {
	postID string
	userID string
}

// ReactionHandler turns reactions on generated-post messages into engagement events
type ReactionHandler struct {
	engagement *engagement.Aggregator
	botID      string
	log        *logger.Logger

	mu    sync.Mutex
	posts map[string]trackedPost // messageTS -> post
	order []string
}

func NewReactionHandler(aggregator *engagement.Aggregator, botID string, log *logger.Logger) *ReactionHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ReactionHandler{
		engagement: aggregator,
		botID:      botID,
		log:        log,
		posts:      make(map[string]trackedPost),
	}
}

// Track remembers which post a Slack message shows. The oldest entries are
// forgotten once maxTrackedMessages is reached.
func (h *ReactionHandler) Track(messageTS, postID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.posts[messageTS]; !ok {
		h.order = append(h.order, messageTS)
	}
	h.posts[messageTS] = trackedPost{postID: postID, userID: userID}

	for len(h.order) > maxTrackedMessages {
		delete(h.posts, h.order[0])
		h.order = h.order[1:]
	}
	h.log.Debug("tracking post message", "message_ts", messageTS, "post_id", postID)
}

func (h *ReactionHandler) lookup(messageTS string) (trackedPost, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.posts[messageTS]
	return p, ok
}

// HandleReaction records engagement for reactions on tracked messages and ignores everything else
func (h *ReactionHandler) HandleReaction(ctx context.Context, event *slackevents.ReactionAddedEvent) error {
	if event.User == h.botID {
		return nil
	}

	post, ok := h.lookup(event.Item.Timestamp)
	if !ok {
		return nil
	}
	eventType, ok := EngagementForReaction(event.Reaction)
	if !ok {
		return nil
	}

	if eventType == reactionView {
		_, err := h.engagement.RecordView(ctx, post.postID)
		return err
	}

	result, err := h.engagement.RecordEvent(ctx, post.postID, post.userID, eventType)
	if err != nil {
		return err
	}
	if result.Learned {
		h.log.Info("post reached learning threshold", "post_id", post.postID, "score", result.SuccessScore)
	}
	return nil
}
