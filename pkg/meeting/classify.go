package meeting

import "strings"

// Default keyword sets. Detailed keywords always win; the brief set is only
// consulted when no detailed keyword matched.
var (
	defaultDetailedKeywords = []string{"explain", "how", "why", "detail", "elaborate", "describe", "process"}
	defaultBriefKeywords    = []string{"what is", "when", "who", "yes or no", "quick"}
)

// Classifier decides whether a question deserves a brief or detailed answer.
// Classification is a pure substring heuristic; no model call is involved.
type Classifier struct {
	detailed []string
	brief    []string
}

// NewClassifier builds a classifier. Nil or empty keyword slices fall back to
// the defaults.
func NewClassifier(detailed, brief []string) *Classifier {
	if len(detailed) == 0 {
		detailed = defaultDetailedKeywords
	}
	if len(brief) == 0 {
		brief = defaultBriefKeywords
	}
	return &Classifier{detailed: detailed, brief: brief}
}

// Classify maps a question to an answer mode. Detailed keywords take
// precedence unconditionally; questions matching neither set default to
// detailed.
func (c *Classifier) Classify(question string) Mode {
	q := strings.ToLower(question)

	for _, kw := range c.detailed {
		if strings.Contains(q, kw) {
			return ModeDetailed
		}
	}
	for _, kw := range c.brief {
		if strings.Contains(q, kw) {
			return ModeBrief
		}
	}
	return ModeDetailed
}
