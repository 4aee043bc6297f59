package agents

import (
	"fmt"
	"math"
	"strings"

	"github.com/shubh-37/ghostwriter/internal/engagement"
	"github.com/shubh-37/ghostwriter/internal/models"
)

// MaxTrainingExamples caps how many training posts go into a style context
const MaxTrainingExamples = 2

// BuildStyleContext formats the user's best posts, the first of their training posts and
// the patterns the best posts share into a block the model can imitate. It returns ""
// when there is nothing to learn from.
func BuildStyleContext(top []models.LearningRecord, training []string, patterns engagement.PatternSummary) string {
	if len(top) == 0 && len(training) == 0 {
		return ""
	}

	var b strings.Builder
	if len(top) > 0 {
		b.WriteString("Here are some of your most successful posts that received high engagement. Learn from their style and patterns:\n")
	}

	for _, rec := range top {
		m := rec.EngagementMetrics
		fmt.Fprintf(&b, "\nPOST (Success Score: %d%%):\n%s\nKey Metrics: %d likes, %d comments, %d shares\nTopic: %s\nTone: %s\n---\n",
			int(math.Round(rec.SuccessScore*100)), rec.Content, m.Likes, m.Comments, m.Shares, rec.Topic, rec.Tone)
	}

	if len(training) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Additional style examples from your training posts:\n\n")
		b.WriteString(strings.Join(training[:min(len(training), MaxTrainingExamples)], "\n\n---\n\n"))
		b.WriteString("\n")
	}

	if len(top) > 0 && patterns.SampleSize > 0 {
		b.WriteString("\nKey patterns from your successful posts:\n")
		fmt.Fprintf(&b, "1. %d%% of your successful posts start with an emoji\n", int(math.Round(patterns.StartsWithEmojiPct)))
		fmt.Fprintf(&b, "2. %d%% use numbered lists or bullet points\n", int(math.Round(patterns.UsesListsPct)))
		fmt.Fprintf(&b, "3. %d%% end with a question\n", int(math.Round(patterns.EndsWithQuestion)))
		fmt.Fprintf(&b, "4. Most used emojis: %s\n", strings.Join(patterns.CommonEmojis, " "))
		fmt.Fprintf(&b, "5. Popular hashtags: %s\n", strings.Join(patterns.CommonHashtags, " "))
	}

	return b.String()
}

// ApplyStyle prefixes prompt with styleContext when there is one
func ApplyStyle(prompt, styleContext string) string {
	if strings.TrimSpace(styleContext) == "" {
		return prompt
	}
	return styleContext + "\n\nUsing these successful patterns and keeping a similar writing style and tone, create a new post that follows these engagement patterns while addressing this prompt:\n\n" + prompt
}
