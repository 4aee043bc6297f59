package agents

import (
	"context"
	"fmt"
	"strings"
)

// MockGenerator produces a fixed template post without calling any model.
// It is used when no API key is configured.
type MockGenerator struct{}

func (MockGenerator) Generate(_ context.Context, prompt, _ string) (string, error) {
	idea := "this topic"
	if i := strings.LastIndex(prompt, ideaMarker); i >= 0 {
		if s := strings.TrimSpace(prompt[i+len(ideaMarker):]); s != "" {
			idea = s
		}
	}

	return fmt.Sprintf(`🚀 Excited to share my thoughts on %s!

Over the past few weeks, I've been diving deep into this topic, and the insights have been incredible. Here's what I've learned:

1️⃣ Start with the fundamentals
2️⃣ Focus on delivering real value
3️⃣ Always keep learning and adapting

What's your experience with this? Let me know in the comments below!

#ProfessionalDevelopment #Innovation #Growth`, idea), nil
}
