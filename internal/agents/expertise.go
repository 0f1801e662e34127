package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/askhub-io/askhub/internal/domain"
)

// Contribution is a prior question or answer by the author under analysis.
// Answer contributions have an empty Title and no Tags.
type Contribution struct {
	ID      int64
	Title   string
	Content string
	Tags    []string
}

// AcceptedAnswer is an answer by the author that an asker accepted.
type AcceptedAnswer struct {
	ID         int64
	QuestionID int64
	Content    string
}

// ContributionReader loads an author's contribution history.
type ContributionReader interface {
	AuthorHistory(ctx context.Context, userID int64, limit int) ([]*Contribution, error)
	AcceptedAnswers(ctx context.Context, userID int64, limit int) ([]*AcceptedAnswer, error)
}

// ExpertiseStore persists discovered skills. Upserts keep the greatest
// evidence count seen for a user/skill pair.
type ExpertiseStore interface {
	UpsertExpertise(ctx context.Context, entry *domain.ExpertiseEntry) error
}

// ProfileCache memoizes a user's merged expertise profile so the history scan
// runs at most once per cache window. A miss returns (nil, nil).
type ProfileCache interface {
	GetProfile(ctx context.Context, userID int64) ([]SkillEvidence, error)
	SetProfile(ctx context.Context, userID int64, evidence []SkillEvidence) error
}

// expertiseSignal is one raw indicator before merging by skill.
type expertiseSignal struct {
	Skill      string
	Confidence float64
	Source     string
}

// ExpertiseAgent infers skills from what users ask, discuss, and answer.
type ExpertiseAgent struct {
	reader ContributionReader
	store  ExpertiseStore
	cache  ProfileCache
	logger *zap.Logger

	historyLimit int
	answerLimit  int
}

func NewExpertiseAgent(reader ContributionReader, store ExpertiseStore, cache ProfileCache, logger *zap.Logger) *ExpertiseAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpertiseAgent{
		reader:       reader,
		store:        store,
		cache:        cache,
		logger:       logger,
		historyLimit: 50,
		answerLimit:  20,
	}
}

func (a *ExpertiseAgent) Name() string { return AgentExpertise }

// Reason gathers expertise signals from the current question, the author's
// contribution history, and their accepted answers, then merges them by
// skill. The merged profile is cached per user so the history and answer
// scans run at most once per cache window.
func (a *ExpertiseAgent) Reason(ctx context.Context, p *Perception) (*Result, error) {
	authorID := p.Question.AuthorID
	logAction(a.logger, a.Name(), "reason", 1.0,
		zap.Int64("question_id", p.Question.ID),
		zap.Int64("author_id", authorID))

	cached := true
	evidence := a.cachedProfile(ctx, authorID)
	if evidence == nil {
		cached = false
		signals := questionSignals(p)
		signals = append(signals, a.historySignals(ctx, authorID)...)
		signals = append(signals, a.answerSignals(ctx, authorID)...)

		evidence = mergeSignals(authorID, signals)
		sort.SliceStable(evidence, func(i, j int) bool { return evidence[i].Confidence > evidence[j].Confidence })
		a.storeProfile(ctx, authorID, evidence)
	}

	result := &Result{
		AgentType:  a.Name(),
		QuestionID: p.Question.ID,
		Expertise:  evidence,
		Confidence: expertiseConfidence(evidence),
		Reasoning:  expertiseReasoning(authorID, evidence),
		Cached:     cached,
		Timestamp:  time.Now().UTC(),
	}

	event := "reason_complete"
	if cached {
		event = "reason_cached"
	}
	logAction(a.logger, a.Name(), event, result.Confidence,
		zap.Int64("author_id", authorID),
		zap.Int("skills", len(evidence)))
	return result, nil
}

func (a *ExpertiseAgent) cachedProfile(ctx context.Context, userID int64) []SkillEvidence {
	cacheCtx, cancel := cacheContext(ctx)
	defer cancel()

	evidence, err := a.cache.GetProfile(cacheCtx, userID)
	if err != nil {
		a.logger.Warn("expertise profile cache read failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	return evidence
}

func (a *ExpertiseAgent) storeProfile(ctx context.Context, userID int64, evidence []SkillEvidence) {
	cacheCtx, cancel := cacheContext(ctx)
	defer cancel()

	if err := a.cache.SetProfile(cacheCtx, userID, evidence); err != nil {
		a.logger.Warn("expertise profile cache write failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// Act records skills whose merged confidence reaches 0.6.
func (a *ExpertiseAgent) Act(ctx context.Context, r *Result) (*Action, error) {
	var updated []SkillEvidence
	for _, e := range r.Expertise {
		if e.Confidence < 0.6 {
			continue
		}

		dbCtx, cancel := dbContext(ctx)
		err := a.store.UpsertExpertise(dbCtx, &domain.ExpertiseEntry{
			UserID:        e.UserID,
			Skill:         e.Skill,
			Proficiency:   e.Proficiency,
			EvidenceCount: e.EvidenceCount,
		})
		cancel()
		if err != nil {
			a.logger.Warn("expertise upsert failed",
				zap.Int64("user_id", e.UserID),
				zap.String("skill", e.Skill),
				zap.Error(err))
			continue
		}
		updated = append(updated, e)
	}

	if len(updated) == 0 {
		return &Action{Type: "no_expertise_updates", Executed: false, Timestamp: time.Now().UTC()}, nil
	}

	action := &Action{
		Type:             "expertise_updated",
		Executed:         true,
		UpdatedExpertise: updated,
		Timestamp:        time.Now().UTC(),
	}

	logAction(a.logger, a.Name(), "act", r.Confidence, zap.Int("updated", len(updated)))
	return action, nil
}

// questionSignals derives signals from the question being asked right now.
// Asking detailed questions about a technology is weak evidence of working
// with it.
func questionSignals(p *Perception) []expertiseSignal {
	var signals []expertiseSignal
	for _, tech := range p.Metadata.TechnologyKeywords {
		skill, ok := TechnologySkillMap[tech]
		if !ok {
			continue
		}
		signals = append(signals, expertiseSignal{
			Skill:      skill,
			Confidence: 0.6,
			Source:     fmt.Sprintf("Asked about %s", tech),
		})
	}
	if p.Metadata.HasCode {
		signals = append(signals, expertiseSignal{
			Skill:      "technical_writing",
			Confidence: 0.7,
			Source:     "Includes code examples in questions",
		})
	}
	if p.Metadata.HasError {
		signals = append(signals, expertiseSignal{
			Skill:      "troubleshooting",
			Confidence: 0.8,
			Source:     "Works through error diagnostics",
		})
	}
	return signals
}

// historySignals runs the content pattern rules over the author's prior
// questions and answers.
func (a *ExpertiseAgent) historySignals(ctx context.Context, userID int64) []expertiseSignal {
	dbCtx, cancel := dbContext(ctx)
	defer cancel()

	history, err := a.reader.AuthorHistory(dbCtx, userID, a.historyLimit)
	if err != nil {
		a.logger.Warn("author history load failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}

	var signals []expertiseSignal
	for _, c := range history {
		text := strings.ToLower(c.Title + " " + c.Content)
		for _, rule := range ContentPatternRules {
			for _, term := range rule.Terms {
				if strings.Contains(text, term) {
					signals = append(signals, expertiseSignal{
						Skill:      rule.Skill,
						Confidence: rule.Confidence,
						Source:     rule.Evidence,
					})
					break
				}
			}
		}
	}
	return signals
}

// answerSignals derives signals from the author's accepted answers. Accepted
// answers are the strongest indicator available: someone else judged them
// correct.
func (a *ExpertiseAgent) answerSignals(ctx context.Context, userID int64) []expertiseSignal {
	dbCtx, cancel := dbContext(ctx)
	defer cancel()

	answers, err := a.reader.AcceptedAnswers(dbCtx, userID, a.answerLimit)
	if err != nil {
		a.logger.Warn("accepted answers load failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}

	var signals []expertiseSignal
	for _, ans := range answers {
		if len(ans.Content) > 500 {
			signals = append(signals, expertiseSignal{
				Skill:      "technical_writing",
				Confidence: 0.6,
				Source:     "Writes detailed accepted answers",
			})
		}
		if DetectCode(ans.Content) {
			signals = append(signals, expertiseSignal{
				Skill:      "code_examples",
				Confidence: 0.7,
				Source:     "Provides working code in answers",
			})
		}
		lower := strings.ToLower(ans.Content)
		if strings.Contains(lower, "step") || strings.Contains(lower, "first") || strings.Contains(lower, "then") {
			signals = append(signals, expertiseSignal{
				Skill:      "instructional_design",
				Confidence: 0.6,
				Source:     "Writes step-by-step guidance",
			})
		}
	}
	return signals
}

// mergeSignals collapses raw signals by skill: average confidence, evidence
// count equal to the number of signals, proficiency by thresholds.
func mergeSignals(userID int64, signals []expertiseSignal) []SkillEvidence {
	type acc struct {
		sum     float64
		count   int
		sources []string
	}
	bySkill := make(map[string]*acc)
	var order []string

	for _, s := range signals {
		entry, ok := bySkill[s.Skill]
		if !ok {
			entry = &acc{}
			bySkill[s.Skill] = entry
			order = append(order, s.Skill)
		}
		entry.sum += s.Confidence
		entry.count++

		duplicate := false
		for _, src := range entry.sources {
			if src == s.Source {
				duplicate = true
				break
			}
		}
		if !duplicate {
			entry.sources = append(entry.sources, s.Source)
		}
	}

	evidence := make([]SkillEvidence, 0, len(order))
	for _, skill := range order {
		entry := bySkill[skill]
		conf := entry.sum / float64(entry.count)

		proficiency := domain.ProficiencyBeginner
		switch {
		case conf >= 0.8 && entry.count >= 3:
			proficiency = domain.ProficiencyExpert
		case conf >= 0.6 && entry.count >= 2:
			proficiency = domain.ProficiencyIntermediate
		}

		evidence = append(evidence, SkillEvidence{
			UserID:        userID,
			Skill:         skill,
			Confidence:    clamp(conf),
			EvidenceCount: entry.count,
			Proficiency:   proficiency,
			Sources:       entry.sources,
		})
	}
	return evidence
}

// expertiseConfidence is the evidence-weighted mean of per-skill confidence.
func expertiseConfidence(evidence []SkillEvidence) float64 {
	if len(evidence) == 0 {
		return 0
	}

	var weighted, total float64
	for _, e := range evidence {
		weighted += e.Confidence * float64(e.EvidenceCount)
		total += float64(e.EvidenceCount)
	}
	if total == 0 {
		return 0
	}
	return clamp(weighted / total)
}

func expertiseReasoning(userID int64, evidence []SkillEvidence) string {
	if len(evidence) == 0 {
		return fmt.Sprintf("No expertise signals found for user %d", userID)
	}

	top := evidence
	if len(top) > 3 {
		top = top[:3]
	}
	skills := make([]string, 0, len(top))
	for _, e := range top {
		skills = append(skills, fmt.Sprintf("%s (%.0f%%, %s)", e.Skill, e.Confidence*100, e.Proficiency))
	}
	return fmt.Sprintf("Identified %d skills for user %d. Strongest: %s",
		len(evidence), userID, strings.Join(skills, ", "))
}
