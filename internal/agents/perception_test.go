package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askhub-io/askhub/internal/domain"
)

func TestPerceive(t *testing.T) {
	t.Run("derives metadata from question text", func(t *testing.T) {
		q := domain.Question{
			ID:      1,
			Title:   "Watson Assistant deployment on Kubernetes",
			Content: "Getting Error: connection refused when deploying. Config:\n```\nreplicas: 3\n```",
		}

		p := Perceive(q, Context{Urgency: "high"})

		assert.Equal(t, q.ID, p.Question.ID)
		assert.Equal(t, "high", p.Context.Urgency)
		assert.True(t, p.Metadata.HasCode)
		assert.True(t, p.Metadata.HasError)
		assert.Contains(t, p.Metadata.TechnologyKeywords, "watson")
		assert.Contains(t, p.Metadata.TechnologyKeywords, "kubernetes")
		assert.Greater(t, p.Metadata.WordCount, 0)
	})

	t.Run("urgency defaults to normal", func(t *testing.T) {
		p := Perceive(domain.Question{Title: "Anything"}, Context{})
		assert.Equal(t, "normal", p.Context.Urgency)
	})

	t.Run("plain prose has no code or errors", func(t *testing.T) {
		p := Perceive(domain.Question{
			Title:   "Team onboarding material",
			Content: "We are looking into onboarding material about internal processes.",
		}, Context{})

		assert.False(t, p.Metadata.HasCode)
		assert.False(t, p.Metadata.HasError)
		assert.Empty(t, p.Metadata.TechnologyKeywords)
	})
}

func TestDetectCode(t *testing.T) {
	assert.True(t, DetectCode("run `kubectl get pods` to check"))
	assert.True(t, DetectCode("```\nconsole.log('hi')\n```"))
	assert.True(t, DetectCode("the function foo does this"))
	assert.False(t, DetectCode("plain prose without markers"))
}

func TestDetectError(t *testing.T) {
	assert.True(t, DetectError("Error: connection refused"))
	assert.True(t, DetectError("the deployment keeps crashing with an exception"))
	assert.True(t, DetectError("Failed to pull image"))
	assert.False(t, DetectError("everything works smoothly"))
}

func TestExtractTechnologyKeywords(t *testing.T) {
	t.Run("matches case-insensitively in vocabulary order", func(t *testing.T) {
		found := ExtractTechnologyKeywords("Deploying WATSON to Kubernetes")
		assert.Equal(t, []string{"watson", "kubernetes"}, found)
	})

	t.Run("no matches yields empty", func(t *testing.T) {
		assert.Empty(t, ExtractTechnologyKeywords("completely unrelated text"))
	})
}
