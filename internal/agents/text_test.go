package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaccard(t *testing.T) {
	t.Run("two empty sets yield zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Jaccard(map[string]struct{}{}, map[string]struct{}{}))
	})

	t.Run("identical sets yield one", func(t *testing.T) {
		a := WordSet("watson deployment guide", 2)
		assert.Equal(t, 1.0, Jaccard(a, a))
	})

	t.Run("disjoint sets yield zero", func(t *testing.T) {
		a := WordSet("watson deployment", 2)
		b := WordSet("redis caching", 2)
		assert.Equal(t, 0.0, Jaccard(a, b))
	})

	t.Run("symmetric", func(t *testing.T) {
		a := WordSet("kubernetes pod scheduling", 2)
		b := WordSet("kubernetes node scheduling", 2)
		assert.Equal(t, Jaccard(a, b), Jaccard(b, a))
	})

	t.Run("partial overlap", func(t *testing.T) {
		a := map[string]struct{}{"one": {}, "two": {}, "three": {}}
		b := map[string]struct{}{"two": {}, "three": {}, "four": {}}
		// intersection 2, union 4
		assert.InDelta(t, 0.5, Jaccard(a, b), 1e-9)
	})
}

func TestWordSet(t *testing.T) {
	t.Run("lowercases and drops short tokens", func(t *testing.T) {
		set := WordSet("Deploy Watson on K8", 2)
		assert.Contains(t, set, "deploy")
		assert.Contains(t, set, "watson")
		assert.NotContains(t, set, "on")
		assert.NotContains(t, set, "k8")
	})

	t.Run("deduplicates", func(t *testing.T) {
		set := WordSet("watson watson watson", 2)
		assert.Len(t, set, 1)
	})
}

func TestLowerSet(t *testing.T) {
	set := LowerSet([]string{"Watson", "KUBERNETES"})
	assert.Contains(t, set, "watson")
	assert.Contains(t, set, "kubernetes")
	assert.Len(t, set, 2)
}

func TestExtractKeyPhrases(t *testing.T) {
	t.Run("builds bigrams and trigrams", func(t *testing.T) {
		phrases := ExtractKeyPhrases("deploy watson assistant kubernetes")
		assert.Contains(t, phrases, "deploy watson")
		assert.Contains(t, phrases, "watson assistant")
		assert.Contains(t, phrases, "deploy watson assistant")
		assert.Contains(t, phrases, "watson assistant kubernetes")
	})

	t.Run("drops stopwords and short tokens", func(t *testing.T) {
		phrases := ExtractKeyPhrases("how to deploy the watson")
		assert.Equal(t, []string{"deploy watson"}, phrases)
	})

	t.Run("too few tokens yields nothing", func(t *testing.T) {
		assert.Empty(t, ExtractKeyPhrases("watson"))
	})
}
