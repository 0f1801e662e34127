package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/askhub-io/askhub/internal/domain"
)

// MockQuestionSearcher is a mock implementation of QuestionSearcher
type MockQuestionSearcher struct {
	mock.Mock
}

func (m *MockQuestionSearcher) SearchSimilar(ctx context.Context, excludeID int64, terms []string, limit int) ([]*QuestionCandidate, error) {
	args := m.Called(ctx, excludeID, terms, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*QuestionCandidate), args.Error(1)
}

// MockSimilarityCache is a mock implementation of SimilarityCache
type MockSimilarityCache struct {
	mock.Mock
}

func (m *MockSimilarityCache) GetSimilar(ctx context.Context, questionID int64) (*Result, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func (m *MockSimilarityCache) SetSimilar(ctx context.Context, questionID int64, r *Result) error {
	args := m.Called(ctx, questionID, r)
	return args.Error(0)
}

func TestDuplicateAgent_Reason(t *testing.T) {
	ctx := context.Background()

	question := domain.Question{
		ID:      10,
		Title:   "Watson Assistant webhook configuration",
		Content: "Configuring webhooks for watson assistant responses.",
		Tags:    []string{"Watson", "API"},
	}

	t.Run("identical question is kept as a duplicate", func(t *testing.T) {
		searcher := new(MockQuestionSearcher)
		cache := new(MockSimilarityCache)

		twin := &QuestionCandidate{
			ID:      3,
			Title:   question.Title,
			Content: question.Content,
			Tags:    question.Tags,
		}
		cache.On("GetSimilar", mock.Anything, int64(10)).Return(nil, nil)
		cache.On("SetSimilar", mock.Anything, int64(10), mock.Anything).Return(nil)
		searcher.On("SearchSimilar", mock.Anything, int64(10), mock.Anything, 50).Return([]*QuestionCandidate{twin}, nil)

		agent := NewDuplicateAgent(searcher, cache, 0.7, nil)
		result, err := agent.Reason(ctx, Perceive(question, Context{}))

		require.NoError(t, err)
		require.Len(t, result.SimilarQuestions, 1)
		assert.InDelta(t, 1.0, result.SimilarQuestions[0].Similarity, 1e-9)
		assert.InDelta(t, 1.0, result.Confidence, 1e-9)
		assert.False(t, result.Cached)
		cache.AssertExpectations(t)
	})

	t.Run("unrelated candidates fall below the threshold", func(t *testing.T) {
		searcher := new(MockQuestionSearcher)
		cache := new(MockSimilarityCache)

		other := &QuestionCandidate{
			ID:      4,
			Title:   "Postgres connection pooling limits",
			Content: "Tuning pool sizes under heavy load.",
		}
		cache.On("GetSimilar", mock.Anything, int64(10)).Return(nil, nil)
		cache.On("SetSimilar", mock.Anything, int64(10), mock.Anything).Return(nil)
		searcher.On("SearchSimilar", mock.Anything, int64(10), mock.Anything, 50).Return([]*QuestionCandidate{other}, nil)

		agent := NewDuplicateAgent(searcher, cache, 0.7, nil)
		result, err := agent.Reason(ctx, Perceive(question, Context{}))

		require.NoError(t, err)
		assert.Empty(t, result.SimilarQuestions)
		assert.Equal(t, 0.0, result.Confidence)
	})

	t.Run("cache hit short-circuits the search", func(t *testing.T) {
		searcher := new(MockQuestionSearcher)
		cache := new(MockSimilarityCache)

		cached := &Result{AgentType: AgentDuplicate, QuestionID: 10, Confidence: 0.85}
		cache.On("GetSimilar", mock.Anything, int64(10)).Return(cached, nil)

		agent := NewDuplicateAgent(searcher, cache, 0.7, nil)
		result, err := agent.Reason(ctx, Perceive(question, Context{}))

		require.NoError(t, err)
		assert.True(t, result.Cached)
		assert.Equal(t, 0.85, result.Confidence)
		searcher.AssertNotCalled(t, "SearchSimilar", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cached result for a different question is ignored", func(t *testing.T) {
		searcher := new(MockQuestionSearcher)
		cache := new(MockSimilarityCache)

		stale := &Result{AgentType: AgentDuplicate, QuestionID: 99, Confidence: 0.9}
		cache.On("GetSimilar", mock.Anything, int64(10)).Return(stale, nil)
		cache.On("SetSimilar", mock.Anything, int64(10), mock.Anything).Return(nil)
		searcher.On("SearchSimilar", mock.Anything, int64(10), mock.Anything, 50).Return([]*QuestionCandidate{}, nil)

		agent := NewDuplicateAgent(searcher, cache, 0.7, nil)
		result, err := agent.Reason(ctx, Perceive(question, Context{}))

		require.NoError(t, err)
		assert.False(t, result.Cached)
		assert.Equal(t, int64(10), result.QuestionID)
		searcher.AssertExpectations(t)
	})

	t.Run("search failure yields an empty result", func(t *testing.T) {
		searcher := new(MockQuestionSearcher)
		cache := new(MockSimilarityCache)

		cache.On("GetSimilar", mock.Anything, int64(10)).Return(nil, nil)
		cache.On("SetSimilar", mock.Anything, int64(10), mock.Anything).Return(nil)
		searcher.On("SearchSimilar", mock.Anything, int64(10), mock.Anything, 50).Return(nil, errors.New("db down"))

		agent := NewDuplicateAgent(searcher, cache, 0.7, nil)
		result, err := agent.Reason(ctx, Perceive(question, Context{}))

		require.NoError(t, err)
		assert.Empty(t, result.SimilarQuestions)
	})
}

func TestDuplicateAgent_Act(t *testing.T) {
	ctx := context.Background()
	agent := NewDuplicateAgent(new(MockQuestionSearcher), new(MockSimilarityCache), 0.7, nil)

	t.Run("reports similar questions with a warning", func(t *testing.T) {
		result := &Result{
			AgentType:  AgentDuplicate,
			QuestionID: 10,
			Confidence: 0.9,
			SimilarQuestions: []SimilarQuestion{
				{QuestionID: 3, Similarity: 0.9},
			},
		}

		action, err := agent.Act(ctx, result)

		require.NoError(t, err)
		assert.Equal(t, "duplicate_suggestions", action.Type)
		assert.True(t, action.Executed)
		assert.Contains(t, action.Warning, "1 similar questions")
		assert.Len(t, action.SimilarQuestions, 1)
	})

	t.Run("no similar questions produces an unexecuted action", func(t *testing.T) {
		action, err := agent.Act(ctx, &Result{AgentType: AgentDuplicate})

		require.NoError(t, err)
		assert.Equal(t, "no_duplicates", action.Type)
		assert.False(t, action.Executed)
	})
}
