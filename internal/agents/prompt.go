package agents

import (
	"fmt"
	"strings"
)

// Tones a post can be written in
const (
	ToneProfessional = "professional"
	ToneCasual       = "casual"
	ToneStorytelling = "storytelling"
	ToneEducational  = "educational"
	TonePromotional  = "promotional"
)

const defaultMaxLength = 1300

const systemPrompt = `You are a LinkedIn ghostwriter. Start the post directly with the content.
Never add a preamble such as "Here's the post:".`

var toneInstructions = map[string]string{
	ToneProfessional: "Create a polished, industry-focused post that demonstrates expertise while staying approachable. Use business language without corporate jargon. Include professional emojis 💼 📈 🎯 💡 🤝",
	ToneCasual:       "Write in a conversational, authentic tone within professional boundaries. Share personal insights others can relate to. Use friendly emojis 😊 💫 🌟 💪 ✨",
	ToneStorytelling: "Craft a narrative arc with a hook, a challenge, a solution and a key takeaway. Focus on emotional connection while staying business-relevant. Use story emojis 📖 🎬 🌅 💭 ⭐",
	ToneEducational:  "Break a complex topic into clear, actionable insights with examples and analogies. Focus on practical value. Include learning emojis 📚 ✏️ 💡 🎓 📝",
	TonePromotional:  "Soft-sell through value-first content: mostly insight, a little promotion. Stay authentic. Use engaging emojis 🚀 💎 🎉 ⭐ 🔥",
}

// ideaMarker prefixes the idea line of every prompt
const ideaMarker = "POST IDEA: "

// PostRequest describes the post a user asked for
type PostRequest struct {
	Idea              string   `json:"idea"`
	Tone              string   `json:"tone"`
	ReferenceCreators []string `json:"reference_creators"`
	MaxLength         int      `json:"max_length"`
}

// ValidTone reports whether tone has writing instructions
func ValidTone(tone string) bool {
	_, ok := toneInstructions[tone]
	return ok
}

// BuildPrompt renders the generation prompt for req. Unknown tones fall back to professional.
func BuildPrompt(req PostRequest) string {
	tone := strings.ToLower(strings.TrimSpace(req.Tone))
	if !ValidTone(tone) {
		tone = ToneProfessional
	}
	maxLength := req.MaxLength
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}

	var b strings.Builder
	b.WriteString(`Write a highly engaging LinkedIn post following these practices:
1. Hook: open with an attention-grabbing first line
2. Structure: short paragraphs, one idea each
3. Spacing: line breaks between paragraphs
4. Engagement: end with a call to action or a thought-provoking question
5. Emojis: at least one emoji every one or two paragraphs
6. Hashtags: 3-5 relevant hashtags at the end
`)
	fmt.Fprintf(&b, "7. Length: at most %d characters\n\n", maxLength)

	b.WriteString("STYLE REQUIREMENTS:\n")
	b.WriteString(toneInstructions[tone])
	b.WriteString("\n\n")

	if len(req.ReferenceCreators) > 0 {
		b.WriteString("INCORPORATE INSPIRATION FROM THESE CREATORS' STYLES:\n")
		b.WriteString(strings.Join(req.ReferenceCreators, ", "))
		b.WriteString("\n\n")
	}

	b.WriteString(ideaMarker)
	b.WriteString(strings.TrimSpace(req.Idea))
	return b.String()
}
