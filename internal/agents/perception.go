package agents

import (
	"regexp"
	"strings"
	"time"

	"github.com/askhub-io/askhub/internal/domain"
)

// technologyVocabulary is the fixed keyword list questions are matched against.
// Matching is case-insensitive substring membership.
var technologyVocabulary = []string{
	"watson", "cloud", "kubernetes", "docker", "openshift", "red hat",
	"ibm cloud", "cloud pak", "api", "microservices", "devops",
	"security", "database", "postgresql", "redis", "node.js", "react",
	"javascript", "python", "java", "go", "rust", "ai", "ml",
}

var codePatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)```.*?```"),
	regexp.MustCompile("`[^`]+`"),
	regexp.MustCompile(`(?s)<code>.*?</code>`),
	regexp.MustCompile(`\b(function|class|const|let|var|if|for|while)\b`),
}

var errorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(error|exception|fail|crash|bug)\b`),
	regexp.MustCompile(`Error:`),
	regexp.MustCompile(`Exception:`),
	regexp.MustCompile(`Failed to`),
}

// Metadata holds the lightweight features derived from a question's text.
type Metadata struct {
	WordCount          int      `json:"word_count"`
	HasCode            bool     `json:"has_code"`
	HasError           bool     `json:"has_error"`
	TechnologyKeywords []string `json:"technology_keywords"`
}

// Context carries optional request-scoped hints passed by the caller.
type Context struct {
	UserExpertise []string `json:"user_expertise,omitempty"`
	TeamContext   string   `json:"team_context,omitempty"`
	Urgency       string   `json:"urgency,omitempty"`
}

// Perception is the derived feature bundle computed once per question and
// shared by all scorers. It is ephemeral and never persisted.
type Perception struct {
	Question  domain.Question `json:"question"`
	Context   Context         `json:"context"`
	Metadata  Metadata        `json:"metadata"`
	Timestamp time.Time       `json:"timestamp"`
}

// Perceive derives features from a question. Pure and deterministic given
// identical input text.
func Perceive(q domain.Question, reqCtx Context) *Perception {
	if reqCtx.Urgency == "" {
		reqCtx.Urgency = "normal"
	}

	return &Perception{
		Question: q,
		Context:  reqCtx,
		Metadata: Metadata{
			WordCount:          len(strings.Fields(q.Content)),
			HasCode:            DetectCode(q.Content),
			HasError:           DetectError(q.Content),
			TechnologyKeywords: ExtractTechnologyKeywords(q.Title + " " + q.Content),
		},
		Timestamp: time.Now().UTC(),
	}
}

// DetectCode reports whether the text contains fenced/inline code markers or
// common keyword tokens.
func DetectCode(content string) bool {
	for _, p := range codePatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

// DetectError reports whether the text matches error/exception/failure vocabulary.
func DetectError(content string) bool {
	for _, p := range errorPatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

// ExtractTechnologyKeywords returns the vocabulary entries present in the text,
// in vocabulary order.
func ExtractTechnologyKeywords(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range technologyVocabulary {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}
