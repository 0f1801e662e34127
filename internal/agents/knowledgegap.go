package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/askhub-io/askhub/internal/domain"
)

// GapStore persists detected knowledge gaps. Gaps are upserted by title so
// repeat detections bump the frequency instead of duplicating rows.
type GapStore interface {
	FindSimilarGap(ctx context.Context, title string) (*domain.KnowledgeGap, error)
	UpsertGap(ctx context.Context, gap *domain.KnowledgeGap) (*domain.KnowledgeGap, error)
}

// GapCache memoizes a question's gap analysis. A miss returns (nil, nil).
type GapCache interface {
	GetGaps(ctx context.Context, questionID int64) (*Result, error)
	SetGaps(ctx context.Context, questionID int64, r *Result) error
}

// KnowledgeGapAgent detects documentation and guidance gaps from the way
// questions are phrased and the technologies they mention.
type KnowledgeGapAgent struct {
	store  GapStore
	cache  GapCache
	logger *zap.Logger
}

func NewKnowledgeGapAgent(store GapStore, cache GapCache, logger *zap.Logger) *KnowledgeGapAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeGapAgent{store: store, cache: cache, logger: logger}
}

func (a *KnowledgeGapAgent) Name() string { return AgentKnowledgeGap }

// Reason detects gap candidates from phrasing patterns and technology
// templates, checks each against stored gaps for recurrence, and assesses
// overall impact. Results are cached per question.
func (a *KnowledgeGapAgent) Reason(ctx context.Context, p *Perception) (*Result, error) {
	logAction(a.logger, a.Name(), "reason", 1.0, zap.Int64("question_id", p.Question.ID))

	if cached := a.cachedResult(ctx, p.Question.ID); cached != nil {
		logAction(a.logger, a.Name(), "reason_cached", cached.Confidence, zap.Int64("question_id", p.Question.ID))
		return cached, nil
	}

	gaps := a.detectGaps(p)
	gaps = a.checkRecurrence(ctx, gaps)
	impact := assessImpact(gaps)

	result := &Result{
		AgentType:  a.Name(),
		QuestionID: p.Question.ID,
		Gaps:       gaps,
		Impact:     &impact,
		Confidence: gapConfidence(gaps),
		Reasoning:  gapReasoning(gaps, impact),
		Timestamp:  time.Now().UTC(),
	}

	a.storeResult(ctx, p.Question.ID, result)

	logAction(a.logger, a.Name(), "reason_complete", result.Confidence,
		zap.Int64("question_id", p.Question.ID),
		zap.Int("gaps", len(gaps)))
	return result, nil
}

// Act persists gaps worth tracking: high priority, or seen more than twice.
func (a *KnowledgeGapAgent) Act(ctx context.Context, r *Result) (*Action, error) {
	if len(r.Gaps) == 0 {
		return &Action{Type: "no_gaps", Executed: false, Timestamp: time.Now().UTC()}, nil
	}

	var created []CreatedGap
	for _, g := range r.Gaps {
		if g.Priority != domain.GapPriorityHigh && g.Frequency <= 2 {
			continue
		}

		dbCtx, cancel := dbContext(ctx)
		stored, err := a.store.UpsertGap(dbCtx, &domain.KnowledgeGap{
			Title:       g.Title,
			Description: g.Description,
			Frequency:   g.Frequency,
			Priority:    g.Priority,
			Status:      domain.GapStatusOpen,
		})
		cancel()
		if err != nil {
			a.logger.Warn("gap upsert failed", zap.String("title", g.Title), zap.Error(err))
			continue
		}

		created = append(created, CreatedGap{
			ID:        stored.ID,
			Title:     stored.Title,
			Priority:  stored.Priority,
			Frequency: stored.Frequency,
		})
	}

	action := &Action{
		Type:             "gaps_recorded",
		Executed:         len(created) > 0,
		CreatedGaps:      created,
		TotalGaps:        len(r.Gaps),
		HighPriorityGaps: countHighPriority(r.Gaps),
		Timestamp:        time.Now().UTC(),
	}

	logAction(a.logger, a.Name(), "act", r.Confidence,
		zap.Int64("question_id", r.QuestionID),
		zap.Int("created", len(created)))
	return action, nil
}

func (a *KnowledgeGapAgent) cachedResult(ctx context.Context, questionID int64) *Result {
	cacheCtx, cancel := cacheContext(ctx)
	defer cancel()

	cached, err := a.cache.GetGaps(cacheCtx, questionID)
	if err != nil {
		a.logger.Warn("gap cache read failed", zap.Int64("question_id", questionID), zap.Error(err))
		return nil
	}
	if cached == nil || cached.QuestionID != questionID {
		return nil
	}
	cached.Cached = true
	return cached
}

func (a *KnowledgeGapAgent) storeResult(ctx context.Context, questionID int64, r *Result) {
	cacheCtx, cancel := cacheContext(ctx)
	defer cancel()

	if err := a.cache.SetGaps(cacheCtx, questionID, r); err != nil {
		a.logger.Warn("gap cache write failed", zap.Int64("question_id", questionID), zap.Error(err))
	}
}

// detectGaps runs the phrasing pattern table over title and content, then
// adds one template gap per detected technology that has a template.
func (a *KnowledgeGapAgent) detectGaps(p *Perception) []Gap {
	text := p.Question.Title + " " + p.Question.Content

	var gaps []Gap
	for _, rule := range GapPatterns {
		if !rule.Pattern.MatchString(text) {
			continue
		}
		gaps = append(gaps, Gap{
			Title:        fmt.Sprintf("%s: %s", gapTypeLabel(rule.Type), truncateTitle(p.Question.Title)),
			Description:  fmt.Sprintf("Question indicates a %s gap: %q", gapTypeLabel(rule.Type), p.Question.Title),
			Type:         rule.Type,
			Priority:     rule.Priority,
			Frequency:    1,
			Technologies: p.Metadata.TechnologyKeywords,
		})
	}

	for _, tech := range p.Metadata.TechnologyKeywords {
		tmpl, ok := TechnologyGapTemplates[tech]
		if !ok {
			continue
		}
		gaps = append(gaps, Gap{
			Title:        tmpl.Title,
			Description:  tmpl.Description,
			Type:         "technology_gap",
			Priority:     tmpl.Priority,
			Frequency:    1,
			Technologies: []string{tech},
		})
	}
	return gaps
}

// checkRecurrence looks each candidate up by title and marks it recurring
// with a bumped frequency when a stored gap already matches.
func (a *KnowledgeGapAgent) checkRecurrence(ctx context.Context, gaps []Gap) []Gap {
	for i := range gaps {
		dbCtx, cancel := dbContext(ctx)
		existing, err := a.store.FindSimilarGap(dbCtx, gaps[i].Title)
		cancel()
		if err != nil {
			a.logger.Warn("gap lookup failed", zap.String("title", gaps[i].Title), zap.Error(err))
			continue
		}
		if existing == nil {
			continue
		}
		gaps[i].Recurring = true
		gaps[i].Frequency = existing.Frequency + 1
	}
	return gaps
}

func assessImpact(gaps []Gap) ImpactAssessment {
	impact := ImpactAssessment{TotalGaps: len(gaps), EstimatedImpact: "low"}
	for _, g := range gaps {
		if g.Priority == domain.GapPriorityHigh {
			impact.HighPriorityGaps++
		}
		if g.Recurring {
			impact.RecurringGaps++
		}
	}
	switch {
	case impact.HighPriorityGaps > 3 || impact.RecurringGaps > 5:
		impact.EstimatedImpact = "high"
	case impact.HighPriorityGaps > 1 || impact.RecurringGaps > 2:
		impact.EstimatedImpact = "medium"
	}
	return impact
}

// gapConfidence grows with gap count and high-priority share, with a bonus
// when any gap is recurring.
func gapConfidence(gaps []Gap) float64 {
	if len(gaps) == 0 {
		return 0
	}

	conf := minf(0.6, float64(len(gaps))*0.2)
	conf += minf(0.3, float64(countHighPriority(gaps))*0.1)
	for _, g := range gaps {
		if g.Recurring {
			conf += 0.1
			break
		}
	}
	return clamp(conf)
}

func gapReasoning(gaps []Gap, impact ImpactAssessment) string {
	if len(gaps) == 0 {
		return "No knowledge gaps detected"
	}

	types := make([]string, 0, len(gaps))
	seen := make(map[string]struct{})
	for _, g := range gaps {
		if _, ok := seen[g.Type]; ok {
			continue
		}
		seen[g.Type] = struct{}{}
		types = append(types, g.Type)
	}

	return fmt.Sprintf("Detected %d knowledge gaps (%s). %d high priority, %d recurring. Estimated impact: %s",
		len(gaps), strings.Join(types, ", "), impact.HighPriorityGaps, impact.RecurringGaps, impact.EstimatedImpact)
}

func countHighPriority(gaps []Gap) int {
	n := 0
	for _, g := range gaps {
		if g.Priority == domain.GapPriorityHigh {
			n++
		}
	}
	return n
}

func gapTypeLabel(gapType string) string {
	return strings.ReplaceAll(gapType, "_", " ")
}

func truncateTitle(title string) string {
	if len(title) <= 80 {
		return title
	}
	return title[:80] + "..."
}
