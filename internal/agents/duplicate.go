package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// QuestionCandidate is a stored question considered for duplicate comparison.
type QuestionCandidate struct {
	ID        int64
	Title     string
	Content   string
	Author    string
	Tags      []string
	VoteCount int
	ViewCount int
	CreatedAt time.Time
}

// QuestionSearcher finds candidate questions whose title or content matches
// any of the given search terms, most recent first, excluding the question
// being scored.
type QuestionSearcher interface {
	SearchSimilar(ctx context.Context, excludeID int64, terms []string, limit int) ([]*QuestionCandidate, error)
}

// SimilarityCache memoizes a question's duplicate analysis. A miss returns
// (nil, nil).
type SimilarityCache interface {
	GetSimilar(ctx context.Context, questionID int64) (*Result, error)
	SetSimilar(ctx context.Context, questionID int64, r *Result) error
}

// DuplicateAgent flags questions that closely resemble existing ones.
type DuplicateAgent struct {
	search              QuestionSearcher
	cache               SimilarityCache
	logger              *zap.Logger
	similarityThreshold float64
	searchLimit         int
	maxPhrases          int
}

// NewDuplicateAgent creates a DuplicateAgent. similarityThreshold is the
// minimum weighted similarity for a candidate to be kept (0.7 by default).
func NewDuplicateAgent(search QuestionSearcher, cache SimilarityCache, similarityThreshold float64, logger *zap.Logger) *DuplicateAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if similarityThreshold <= 0 {
		similarityThreshold = 0.7
	}
	return &DuplicateAgent{
		search:              search,
		cache:               cache,
		logger:              logger,
		similarityThreshold: similarityThreshold,
		searchLimit:         50,
		maxPhrases:          5,
	}
}

func (a *DuplicateAgent) Name() string { return AgentDuplicate }

// Reason checks the cache first and otherwise searches for and scores similar
// questions. Successful results are cached so the analysis runs at most once
// per question per cache window.
func (a *DuplicateAgent) Reason(ctx context.Context, p *Perception) (*Result, error) {
	logAction(a.logger, a.Name(), "reason", 1.0, zap.Int64("question_id", p.Question.ID))

	if cached := a.cachedResult(ctx, p.Question.ID); cached != nil {
		logAction(a.logger, a.Name(), "reason_cached", cached.Confidence, zap.Int64("question_id", p.Question.ID))
		return cached, nil
	}

	terms := a.searchTerms(p)
	candidates := a.findCandidates(ctx, p.Question.ID, terms)
	similar := a.scoreCandidates(p, candidates)

	kept := similar[:0]
	for _, s := range similar {
		if s.Similarity >= a.similarityThreshold {
			kept = append(kept, s)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Similarity > kept[j].Similarity })

	result := &Result{
		AgentType:        a.Name(),
		QuestionID:       p.Question.ID,
		SimilarQuestions: kept,
		Confidence:       duplicateConfidence(kept),
		Reasoning:        duplicateReasoning(p.Question.Title, kept),
		Timestamp:        time.Now().UTC(),
	}

	a.storeResult(ctx, p.Question.ID, result)

	logAction(a.logger, a.Name(), "reason_complete", result.Confidence,
		zap.Int64("question_id", p.Question.ID),
		zap.Int("similar", len(kept)))
	return result, nil
}

// Act reports the kept similar questions as an advisory to the asker.
func (a *DuplicateAgent) Act(ctx context.Context, r *Result) (*Action, error) {
	if len(r.SimilarQuestions) == 0 {
		return &Action{Type: "no_duplicates", Executed: false, Timestamp: time.Now().UTC()}, nil
	}

	action := &Action{
		Type:             "duplicate_suggestions",
		Executed:         true,
		SimilarQuestions: r.SimilarQuestions,
		Warning:          fmt.Sprintf("Found %d similar questions. Consider checking these before posting.", len(r.SimilarQuestions)),
		Timestamp:        time.Now().UTC(),
	}

	logAction(a.logger, a.Name(), "act", r.Confidence, zap.Int64("question_id", r.QuestionID))
	return action, nil
}

func (a *DuplicateAgent) cachedResult(ctx context.Context, questionID int64) *Result {
	cacheCtx, cancel := cacheContext(ctx)
	defer cancel()

	cached, err := a.cache.GetSimilar(cacheCtx, questionID)
	if err != nil {
		a.logger.Warn("similarity cache read failed", zap.Int64("question_id", questionID), zap.Error(err))
		return nil
	}
	if cached == nil || cached.QuestionID != questionID {
		return nil
	}
	cached.Cached = true
	return cached
}

func (a *DuplicateAgent) storeResult(ctx context.Context, questionID int64, r *Result) {
	cacheCtx, cancel := cacheContext(ctx)
	defer cancel()

	if err := a.cache.SetSimilar(cacheCtx, questionID, r); err != nil {
		a.logger.Warn("similarity cache write failed", zap.Int64("question_id", questionID), zap.Error(err))
	}
}

// searchTerms combines the detected technology keywords with the top key
// phrases from title and content.
func (a *DuplicateAgent) searchTerms(p *Perception) []string {
	terms := append([]string{}, p.Metadata.TechnologyKeywords...)

	phrases := ExtractKeyPhrases(p.Question.Title + " " + p.Question.Content)
	if len(phrases) > a.maxPhrases {
		phrases = phrases[:a.maxPhrases]
	}
	return append(terms, phrases...)
}

func (a *DuplicateAgent) findCandidates(ctx context.Context, excludeID int64, terms []string) []*QuestionCandidate {
	if len(terms) == 0 {
		return nil
	}

	dbCtx, cancel := dbContext(ctx)
	defer cancel()

	candidates, err := a.search.SearchSimilar(dbCtx, excludeID, terms, a.searchLimit)
	if err != nil {
		a.logger.Warn("similar question search failed", zap.Error(err))
		return nil
	}
	return candidates
}

// scoreCandidates computes the weighted similarity for each candidate:
// 0.4 title + 0.3 content + 0.2 tags + 0.1 technology keywords, all Jaccard.
func (a *DuplicateAgent) scoreCandidates(p *Perception, candidates []*QuestionCandidate) []SimilarQuestion {
	current := p.Question
	currentTitle := WordSet(current.Title, 2)
	currentContent := WordSet(current.Content, 2)
	currentTags := LowerSet(current.Tags)
	currentKeywords := LowerSet(p.Metadata.TechnologyKeywords)

	similar := make([]SimilarQuestion, 0, len(candidates))
	for _, c := range candidates {
		titleSim := Jaccard(currentTitle, WordSet(c.Title, 2))
		contentSim := Jaccard(currentContent, WordSet(c.Content, 2))
		tagSim := Jaccard(currentTags, LowerSet(c.Tags))
		keywordSim := Jaccard(currentKeywords, LowerSet(ExtractTechnologyKeywords(c.Title+" "+c.Content)))

		similarity := 0.4*titleSim + 0.3*contentSim + 0.2*tagSim + 0.1*keywordSim

		reasoning := fmt.Sprintf(
			"Title similarity: %.1f%%; Content similarity: %.1f%%; Tag similarity: %.1f%%; Technology similarity: %.1f%%",
			titleSim*100, contentSim*100, tagSim*100, keywordSim*100,
		)

		similar = append(similar, SimilarQuestion{
			QuestionID: c.ID,
			Title:      c.Title,
			Excerpt:    excerpt(c.Content, 200),
			Author:     c.Author,
			Tags:       c.Tags,
			VoteCount:  c.VoteCount,
			ViewCount:  c.ViewCount,
			CreatedAt:  c.CreatedAt,
			Similarity: similarity,
			Reasoning:  reasoning,
		})
	}
	return similar
}

// duplicateConfidence weights the best similarity 0.7 and the mean 0.3.
func duplicateConfidence(similar []SimilarQuestion) float64 {
	if len(similar) == 0 {
		return 0
	}

	var sum, max float64
	for _, s := range similar {
		sum += s.Similarity
		if s.Similarity > max {
			max = s.Similarity
		}
	}
	return clamp(max*0.7 + sum/float64(len(similar))*0.3)
}

func duplicateReasoning(title string, similar []SimilarQuestion) string {
	parts := []string{
		fmt.Sprintf("Analyzed question: %q", title),
		fmt.Sprintf("Found %d similar questions", len(similar)),
	}
	if len(similar) > 0 {
		parts = append(parts, fmt.Sprintf("Most similar: %q (%.1f%% match)", similar[0].Title, similar[0].Similarity*100))
	}
	return strings.Join(parts, ". ")
}

func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
