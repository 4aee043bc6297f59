package engagement

import (
	"regexp"
	"sort"
	"unicode"

	"github.com/shubh-37/ghostwriter/internal/models"
)

const topPatternCount = 5

var (
	leadingSymbolRe = regexp.MustCompile(`^[^\w\s]`)
	listMarkerRe    = regexp.MustCompile(`\d\.|•`)
	endsQuestionRe  = regexp.MustCompile(`\?\s*$`)
	hashtagRe       = regexp.MustCompile(`#\w+`)
)

// PatternSummary describes the surface features shared by a batch of successful posts.
// Percentages are in [0,100].
type PatternSummary struct {
	StartsWithEmojiPct float64  `json:"starts_with_emoji_pct"`
	UsesListsPct       float64  `json:"uses_lists_pct"`
	EndsWithQuestion   float64  `json:"ends_with_question_pct"`
	CommonEmojis       []string `json:"common_emojis"`
	CommonHashtags     []string `json:"common_hashtags"`
	SampleSize         int      `json:"sample_size"`
}

// AnalyzePatterns computes descriptive statistics over the content of records
func AnalyzePatterns(records []models.LearningRecord) PatternSummary {
	summary := PatternSummary{
		CommonEmojis:   []string{},
		CommonHashtags: []string{},
		SampleSize:     len(records),
	}
	if len(records) == 0 {
		return summary
	}

	var leading, lists, questions int
	emojis := newTally()
	hashtags := newTally()

	for _, rec := range records {
		content := rec.Content
		if leadingSymbolRe.MatchString(content) {
			leading++
		}
		if listMarkerRe.MatchString(content) {
			lists++
		}
		if endsQuestionRe.MatchString(content) {
			questions++
		}
		emojis.add(ExtractEmojis(content)...)
		hashtags.add(ExtractHashtags(content)...)
	}

	total := float64(len(records))
	summary.StartsWithEmojiPct = 100 * float64(leading) / total
	summary.UsesListsPct = 100 * float64(lists) / total
	summary.EndsWithQuestion = 100 * float64(questions) / total
	summary.CommonEmojis = emojis.top(topPatternCount)
	summary.CommonHashtags = hashtags.top(topPatternCount)
	return summary
}

// ExtractEmojis returns every emoji-like symbol in text, in order of appearance
func ExtractEmojis(text string) []string {
	var out []string
	for _, r := range text {
		if unicode.Is(unicode.So, r) {
			out = append(out, string(r))
		}
	}
	return out
}

// ExtractHashtags returns every #tag token in text in order of appearance
func ExtractHashtags(text string) []string {
	return hashtagRe.FindAllString(text, -1)
}

// tally counts tokens and remembers when each was first seen
type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(tokens ...string) {
	for _, tok := range tokens {
		if _, seen := t.counts[tok]; !seen {
			t.order = append(t.order, tok)
		}
		t.counts[tok]++
	}
}

// top returns up to n tokens by descending count, ties in first-seen order
func (t *tally) top(n int) []string {
	ranked := make([]string, len(t.order))
	copy(ranked, t.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return t.counts[ranked[i]] > t.counts[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
