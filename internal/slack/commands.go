package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shubh-37/ghostwriter/internal/agents"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/engagement"
	"github.com/shubh-37/ghostwriter/internal/generation"
	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/shubh-37/ghostwriter/internal/models"
	"github.com/shubh-37/ghostwriter/internal/plans"
	"github.com/shubh-37/ghostwriter/internal/style"
)

const previewLength = 120

// CommandHandler runs mention commands against the services and replies in the channel
type CommandHandler struct {
	messenger  Messenger
	plans      *plans.Tracker
	generation *generation.Service
	engagement *engagement.Aggregator
	style      *style.Service
	reactions  *ReactionHandler
	log        *logger.Logger
}

func NewCommandHandler(
	messenger Messenger,
	tracker *plans.Tracker,
	gen *generation.Service,
	aggregator *engagement.Aggregator,
	styles *style.Service,
	reactions *ReactionHandler,
	log *logger.Logger,
) *CommandHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CommandHandler{
		messenger:  messenger,
		plans:      tracker,
		generation: gen,
		engagement: aggregator,
		style:      styles,
		reactions:  reactions,
		log:        log,
	}
}

func (h *CommandHandler) send(ctx context.Context, channelID, text string) error {
	_, err := h.messenger.PostMessage(ctx, channelID, text)
	return err
}

// Generate writes a draft from the idea in args. A leading "tone:<name>" picks the tone.
func (h *CommandHandler) Generate(ctx context.Context, channelID, userID, args string) error {
	req := agents.PostRequest{Idea: args}
	if first, rest, ok := strings.Cut(args, " "); ok && strings.HasPrefix(strings.ToLower(first), "tone:") {
		tone := strings.ToLower(strings.TrimPrefix(strings.ToLower(first), "tone:"))
		if !agents.ValidTone(tone) {
			return h.send(ctx, channelID, fmt.Sprintf("❌ Unknown tone `%s`. Try professional, casual, storytelling, educational or promotional.", tone))
		}
		req.Tone = tone
		req.Idea = rest
	}

	result, err := h.generation.Generate(ctx, userID, req)
	switch {
	case errors.Is(err, generation.ErrEmptyIdea):
		return h.send(ctx, channelID, "Please provide an idea: `@Ghostwriter generate [your idea]`")
	case errors.Is(err, apperrors.ErrQuotaExceeded):
		return h.send(ctx, channelID, h.quotaMessage(ctx, userID))
	case err != nil:
		h.log.Error("failed to generate post", "user_id", userID, "error", err)
		return h.send(ctx, channelID, failureMessage(err, "generate the post"))
	}

	message := "🎯 *Generated LinkedIn Post*\n"
	if result.StyleUsed {
		message += "_Styled after your own posts_\n"
	}
	message += "\n━━━━━━━━━━━━━━━━━━\n\n"
	message += result.Post.Content + "\n\n"
	message += "━━━━━━━━━━━━━━━━━━\n\n"
	message += "💡 *React to log engagement:* 👍 ❤️ like • 💬 comment • 🔁 share • 🔗 click • 👀 view"

	messageTS, err := h.messenger.PostMessage(ctx, channelID, message)
	if err != nil {
		return err
	}
	h.reactions.Track(messageTS, result.Post.ID, userID)
	return nil
}

// quotaMessage tells the user their plan's allotment is spent
func (h *CommandHandler) quotaMessage(ctx context.Context, userID string) string {
	usage, err := h.plans.Usage(ctx, userID)
	if err != nil || usage.Unlimited {
		if err != nil {
			h.log.Warn("failed to load plan for quota message", "user_id", userID, "error", err)
		}
		return "🚫 You've reached your plan's monthly post limit.\n\nUpgrade with `@Ghostwriter upgrade pro` to keep generating."
	}

	return fmt.Sprintf("🚫 You've used all %d posts of your *%s* plan this month.\n\nUpgrade with `@Ghostwriter upgrade pro` to keep generating, or wait for the reset on %s.",
		usage.PostsLimit, usage.Plan.PlanName, usage.Plan.EndDate.Format("Jan 02, 2006"))
}

// Train saves the posts in args as the user's style samples. Several posts are
// separated by a line holding only "---".
func (h *CommandHandler) Train(ctx context.Context, channelID, userID, args string) error {
	settings, err := h.style.TrainStyle(ctx, userID, splitTrainingPosts(args))
	switch {
	case errors.Is(err, style.ErrNoTrainingPosts):
		return h.send(ctx, channelID, "Paste one or more of your posts: `@Ghostwriter train [post]`, with a `---` line between posts.")
	case err != nil:
		h.log.Error("failed to train style", "user_id", userID, "error", err)
		return h.send(ctx, channelID, failureMessage(err, "save your training posts"))
	}

	return h.send(ctx, channelID, fmt.Sprintf("🧠 Saved %d training post(s). Your next posts will follow their style.", len(settings.TrainingPosts)))
}

func splitTrainingPosts(text string) []string {
	var posts []string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "---" {
			posts = append(posts, strings.Join(current, "\n"))
			current = nil
			continue
		}
		current = append(current, line)
	}
	return append(posts, strings.Join(current, "\n"))
}

func (h *CommandHandler) Plan(ctx context.Context, channelID, userID string) error {
	usage, err := h.plans.Usage(ctx, userID)
	if err != nil {
		h.log.Error("failed to load plan", "user_id", userID, "error", err)
		return h.send(ctx, channelID, failureMessage(err, "load your plan"))
	}

	return h.send(ctx, channelID, formatUsage(usage))
}

func (h *CommandHandler) ChangePlan(ctx context.Context, channelID, userID, args string) error {
	plan, err := models.ParsePlanName(strings.ToLower(strings.TrimSpace(args)))
	if err != nil {
		return h.send(ctx, channelID, "Which plan? `@Ghostwriter upgrade [free|pro|enterprise]`")
	}

	if _, err := h.plans.ChangePlan(ctx, userID, plan); err != nil {
		h.log.Error("failed to change plan", "user_id", userID, "plan", plan, "error", err)
		return h.send(ctx, channelID, failureMessage(err, "change your plan"))
	}
	usage, err := h.plans.Usage(ctx, userID)
	if err != nil {
		return h.send(ctx, channelID, failureMessage(err, "load your plan"))
	}

	return h.send(ctx, channelID, fmt.Sprintf("✅ You're now on the *%s* plan.\n\n%s", plan, formatUsage(usage)))
}

func (h *CommandHandler) TopPosts(ctx context.Context, channelID, userID string) error {
	top, err := h.engagement.TopPosts(ctx, userID)
	if err != nil {
		h.log.Error("failed to list top posts", "user_id", userID, "error", err)
		return h.send(ctx, channelID, failureMessage(err, "fetch your top posts"))
	}

	if len(top) == 0 {
		return h.send(ctx, channelID, "📭 No successful posts yet. React to your generated posts to log engagement and I'll learn from the winners!")
	}

	message := fmt.Sprintf("🏆 *Your Top Posts* (%d)\n\n", len(top))
	for i, rec := range top {
		message += fmt.Sprintf("*%d. Success Score: %.0f%%* (%d likes, %d comments, %d shares)\n%s\n\n",
			i+1,
			rec.SuccessScore*100,
			rec.EngagementMetrics.Likes,
			rec.EngagementMetrics.Comments,
			rec.EngagementMetrics.Shares,
			preview(rec.Content))
	}

	return h.send(ctx, channelID, message)
}

func (h *CommandHandler) Patterns(ctx context.Context, channelID, userID string) error {
	summary, err := h.engagement.Patterns(ctx, userID)
	if err != nil {
		h.log.Error("failed to analyze patterns", "user_id", userID, "error", err)
		return h.send(ctx, channelID, failureMessage(err, "analyze your posts"))
	}

	if summary.SampleSize == 0 {
		return h.send(ctx, channelID, "📭 Not enough successful posts to spot patterns yet.")
	}

	message := fmt.Sprintf("🔍 *What works for you* (from %d posts)\n\n", summary.SampleSize)
	message += fmt.Sprintf("• %.0f%% start with an emoji\n", summary.StartsWithEmojiPct)
	message += fmt.Sprintf("• %.0f%% use lists or bullet points\n", summary.UsesListsPct)
	message += fmt.Sprintf("• %.0f%% end with a question\n", summary.EndsWithQuestion)
	if len(summary.CommonEmojis) > 0 {
		message += fmt.Sprintf("• Favorite emojis: %s\n", strings.Join(summary.CommonEmojis, " "))
	}
	if len(summary.CommonHashtags) > 0 {
		message += fmt.Sprintf("• Favorite hashtags: %s\n", strings.Join(summary.CommonHashtags, " "))
	}

	return h.send(ctx, channelID, message)
}

func (h *CommandHandler) Stats(ctx context.Context, channelID, userID string) error {
	summary, err := h.engagement.Summary(ctx, userID)
	if err != nil {
		h.log.Error("failed to summarize engagement", "user_id", userID, "error", err)
		return h.send(ctx, channelID, failureMessage(err, "fetch your stats"))
	}

	message := "📊 *Engagement Statistics*\n\n"
	message += fmt.Sprintf("Posts tracked: *%d*\n", summary.Posts)
	message += fmt.Sprintf("Views: %d • Likes: %d • Comments: %d • Shares: %d • Clicks: %d\n",
		summary.Views, summary.Likes, summary.Comments, summary.Shares, summary.Clicks)
	message += fmt.Sprintf("Average engagement rate: %.1f%%\n", summary.AvgEngagementRate)
	message += fmt.Sprintf("Learning snapshots: %d", summary.LearningSnapshots)
	if summary.LearningSnapshots > 0 {
		message += fmt.Sprintf(" (best score %.0f%%)", summary.BestSuccessScore*100)
	}

	return h.send(ctx, channelID, message)
}

func (h *CommandHandler) Help(ctx context.Context, channelID string) error {
	helpText := `*LinkedIn Ghostwriter Bot*

I write LinkedIn posts and learn from the ones that perform!

*Commands:*
- @Ghostwriter generate [idea] - Write a post about an idea
- @Ghostwriter generate tone:casual [idea] - Pick a tone (professional, casual, storytelling, educational, promotional)
- @Ghostwriter plan - Show your plan and remaining posts
- @Ghostwriter upgrade [free|pro|enterprise] - Change your plan
- @Ghostwriter train [post] - Teach me your style with your own posts (separate several with a --- line)
- @Ghostwriter top - Show your best performing posts
- @Ghostwriter patterns - Show what your best posts have in common
- @Ghostwriter stats - Show engagement statistics
- @Ghostwriter help - Show this help

*Workflow:*
1. Generate a post and publish it
2. React to the generated message as engagement comes in
3. Posts that score well shape the style of your next ones`

	return h.send(ctx, channelID, helpText)
}

func (h *CommandHandler) Unknown(ctx context.Context, channelID, command string) error {
	return h.send(ctx, channelID, fmt.Sprintf("🤔 I don't know `%s`. Try `@Ghostwriter help`.", command))
}

func formatUsage(u *plans.Usage) string {
	message := fmt.Sprintf("📋 *Plan:* %s\n", u.Plan.PlanName)
	message += fmt.Sprintf("Posts this month: %d (free %d/%d)\n", u.TotalUsed, u.Plan.FreePostsUsed, models.FreeMonthlyPosts)
	if u.Unlimited {
		message += "Remaining: unlimited\n"
	} else {
		message += fmt.Sprintf("Remaining: %d\n", u.Remaining)
	}
	message += fmt.Sprintf("Resets: %s", u.Plan.EndDate.Format("Jan 02, 2006"))
	return message
}

func failureMessage(err error, action string) string {
	if apperrors.Retryable(err) {
		return fmt.Sprintf("⚠️ Couldn't %s right now, storage is temporarily unavailable. Please try again.", action)
	}
	return fmt.Sprintf("❌ Failed to %s. Please try again.", action)
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) > previewLength {
		return string(runes[:previewLength]) + "..."
	}
	return content
}
