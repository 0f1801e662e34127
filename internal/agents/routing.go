package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SkillDetail is one recorded skill on an expert candidate.
type SkillDetail struct {
	Proficiency   string
	EvidenceCount int
}

// ExpertCandidate is a user who may be able to answer a question, with their
// recorded skills and free-text expertise.
type ExpertCandidate struct {
	UserID        int64
	FirstName     string
	LastName      string
	Email         string
	Department    string
	Team          string
	Reputation    int
	Expertise     []string
	Skills        map[string]SkillDetail
	TotalEvidence int
}

// ExpertFinder looks up users whose skills or expertise intersect the required
// skills, ordered by reputation.
type ExpertFinder interface {
	FindExperts(ctx context.Context, skills []string) ([]*ExpertCandidate, error)
}

// AvailabilitySource reports a user's availability in [0,1]. Values are cached
// and refreshed every few minutes.
type AvailabilitySource interface {
	Availability(ctx context.Context, userID int64) (float64, error)
}

// SuggestionCache memoizes a question's routing analysis. A miss returns
// (nil, nil).
type SuggestionCache interface {
	GetSuggestions(ctx context.Context, questionID int64) (*Result, error)
	SetSuggestions(ctx context.Context, questionID int64, r *Result) error
}

// SkillRequirements is what a question demands of a responder.
type SkillRequirements struct {
	Technologies []string
	Skills       []string
	Urgency      string
	Complexity   string
}

// RoutingAgent suggests experts for a new question.
type RoutingAgent struct {
	experts        ExpertFinder
	availability   AvailabilitySource
	cache          SuggestionCache
	logger         *zap.Logger
	maxSuggestions int
}

// NewRoutingAgent creates a RoutingAgent.
func NewRoutingAgent(experts ExpertFinder, availability AvailabilitySource, cache SuggestionCache, logger *zap.Logger) *RoutingAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoutingAgent{
		experts:        experts,
		availability:   availability,
		cache:          cache,
		logger:         logger,
		maxSuggestions: 3,
	}
}

func (a *RoutingAgent) Name() string { return AgentRouting }

// Reason derives required skills, finds candidate experts, scores each and
// keeps the top suggestions. Results are cached per question so the expert
// search runs at most once per cache window.
func (a *RoutingAgent) Reason(ctx context.Context, p *Perception) (*Result, error) {
	logAction(a.logger, a.Name(), "reason", 1.0, zap.Int64("question_id", p.Question.ID))

	if cached := a.cachedResult(ctx, p.Question.ID); cached != nil {
		logAction(a.logger, a.Name(), "reason_cached", cached.Confidence, zap.Int64("question_id", p.Question.ID))
		return cached, nil
	}

	requirements := DeriveRequirements(p)

	candidates, err := a.findCandidates(ctx, requirements)
	if err != nil {
		// Persistence trouble degrades to "no suggestions" rather than failing
		// the orchestration.
		a.logger.Warn("expert lookup failed", zap.Error(err))
		candidates = nil
	}

	suggestions := a.scoreCandidates(ctx, candidates, p.Metadata.TechnologyKeywords)
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	if len(suggestions) > a.maxSuggestions {
		suggestions = suggestions[:a.maxSuggestions]
	}

	result := &Result{
		AgentType:      a.Name(),
		QuestionID:     p.Question.ID,
		Suggestions:    suggestions,
		RequiredSkills: requirements.Skills,
		Confidence:     routingConfidence(suggestions),
		Reasoning:      routingReasoning(suggestions, requirements),
		Timestamp:      time.Now().UTC(),
	}

	a.storeResult(ctx, p.Question.ID, result)

	logAction(a.logger, a.Name(), "reason_complete", result.Confidence,
		zap.Int64("question_id", p.Question.ID),
		zap.Int("suggestions", len(suggestions)))
	return result, nil
}

func (a *RoutingAgent) cachedResult(ctx context.Context, questionID int64) *Result {
	cacheCtx, cancel := cacheContext(ctx)
	defer cancel()

	cached, err := a.cache.GetSuggestions(cacheCtx, questionID)
	if err != nil {
		a.logger.Warn("suggestion cache read failed", zap.Int64("question_id", questionID), zap.Error(err))
		return nil
	}
	if cached == nil || cached.QuestionID != questionID {
		return nil
	}
	cached.Cached = true
	return cached
}

func (a *RoutingAgent) storeResult(ctx context.Context, questionID int64, r *Result) {
	cacheCtx, cancel := cacheContext(ctx)
	defer cancel()

	if err := a.cache.SetSuggestions(cacheCtx, questionID, r); err != nil {
		a.logger.Warn("suggestion cache write failed", zap.Int64("question_id", questionID), zap.Error(err))
	}
}

// Act emits one notification payload per kept suggestion. Confidence gating
// happens at the orchestrator, not here.
func (a *RoutingAgent) Act(ctx context.Context, r *Result) (*Action, error) {
	if len(r.Suggestions) == 0 {
		return &Action{Type: "no_suggestions", Executed: false, Timestamp: time.Now().UTC()}, nil
	}

	notifications := make([]Notification, 0, len(r.Suggestions))
	for _, s := range r.Suggestions {
		notifications = append(notifications, Notification{
			UserID:     s.UserID,
			Message:    "You've been suggested as an expert for a new question",
			Confidence: s.Confidence,
		})
	}

	action := &Action{
		Type:          "expert_suggestions",
		Executed:      true,
		Notifications: notifications,
		Timestamp:     time.Now().UTC(),
	}

	logAction(a.logger, a.Name(), "act", r.Confidence,
		zap.Int64("question_id", r.QuestionID),
		zap.Int("notifications", len(notifications)))
	return action, nil
}

// DeriveRequirements extracts skill, urgency and complexity requirements from
// a perception using the routing rule table.
func DeriveRequirements(p *Perception) SkillRequirements {
	text := strings.ToLower(p.Question.Title + " " + p.Question.Content)

	req := SkillRequirements{
		Technologies: p.Metadata.TechnologyKeywords,
		Urgency:      "normal",
		Complexity:   "medium",
	}

	seen := make(map[string]struct{})
	for _, rule := range SkillRules {
		for _, term := range rule.Terms {
			if strings.Contains(text, term) {
				for _, skill := range rule.Skills {
					if _, ok := seen[skill]; !ok {
						seen[skill] = struct{}{}
						req.Skills = append(req.Skills, skill)
					}
				}
				break
			}
		}
	}

	if strings.Contains(text, "urgent") || strings.Contains(text, "critical") || strings.Contains(text, "blocker") {
		req.Urgency = "high"
	}

	if p.Metadata.HasCode && p.Metadata.WordCount > 200 {
		req.Complexity = "high"
	} else if p.Metadata.WordCount < 50 {
		req.Complexity = "low"
	}

	return req
}

func (a *RoutingAgent) findCandidates(ctx context.Context, req SkillRequirements) ([]*ExpertCandidate, error) {
	if len(req.Skills) == 0 {
		return nil, nil
	}

	dbCtx, cancel := dbContext(ctx)
	defer cancel()
	return a.experts.FindExperts(dbCtx, req.Skills)
}

func (a *RoutingAgent) scoreCandidates(ctx context.Context, candidates []*ExpertCandidate, keywords []string) []ExpertSuggestion {
	suggestions := make([]ExpertSuggestion, 0, len(candidates))

	for _, expert := range candidates {
		var reasons []string

		confidence := 0.3 * minf(float64(expert.Reputation)/100, 1)
		reasons = append(reasons, fmt.Sprintf("Reputation: %d", expert.Reputation))

		matchScore, matches := skillMatchScore(expert, keywords)
		confidence += 0.4 * matchScore
		reasons = append(reasons, "Skill matches: "+strings.Join(matches, ", "))

		confidence += 0.2 * minf(float64(expert.TotalEvidence)/50, 1)
		reasons = append(reasons, fmt.Sprintf("Evidence count: %d", expert.TotalEvidence))

		availability := a.checkAvailability(ctx, expert.UserID)
		confidence += 0.1 * availability
		if availability > 0.5 {
			reasons = append(reasons, "Availability: High")
		} else {
			reasons = append(reasons, "Availability: Medium")
		}

		suggestions = append(suggestions, ExpertSuggestion{
			UserID:       expert.UserID,
			FirstName:    expert.FirstName,
			LastName:     expert.LastName,
			Email:        expert.Email,
			Department:   expert.Department,
			Team:         expert.Team,
			Reputation:   expert.Reputation,
			Confidence:   clamp(confidence),
			Reasoning:    strings.Join(reasons, "; "),
			SkillMatches: matches,
		})
	}

	return suggestions
}

// skillMatchScore aggregates per-skill evidence weighted 0.1 each plus 0.2 per
// matching free-text expertise entry, capped at 1.
func skillMatchScore(expert *ExpertCandidate, keywords []string) (float64, []string) {
	var score float64
	var matches []string

	for skill, detail := range expert.Skills {
		for _, kw := range keywords {
			if strings.Contains(strings.ToLower(kw), strings.ToLower(skill)) ||
				strings.Contains(strings.ToLower(skill), strings.ToLower(kw)) {
				score += float64(detail.EvidenceCount) * 0.1
				matches = append(matches, skill)
				break
			}
		}
	}

	for _, expertise := range expert.Expertise {
		for _, kw := range keywords {
			if strings.Contains(strings.ToLower(expertise), strings.ToLower(kw)) {
				score += 0.2
				matches = append(matches, expertise)
				break
			}
		}
	}

	sort.Strings(matches)
	return minf(score, 1), matches
}

func (a *RoutingAgent) checkAvailability(ctx context.Context, userID int64) float64 {
	cacheCtx, cancel := cacheContext(ctx)
	defer cancel()

	availability, err := a.availability.Availability(cacheCtx, userID)
	if err != nil {
		a.logger.Warn("availability check failed", zap.Int64("user_id", userID), zap.Error(err))
		return 0.5
	}
	return availability
}

// routingConfidence weights the mean suggestion confidence 0.7 and the best 0.3.
func routingConfidence(suggestions []ExpertSuggestion) float64 {
	if len(suggestions) == 0 {
		return 0
	}

	var sum, max float64
	for _, s := range suggestions {
		sum += s.Confidence
		if s.Confidence > max {
			max = s.Confidence
		}
	}
	return clamp(sum/float64(len(suggestions))*0.7 + max*0.3)
}

func routingReasoning(suggestions []ExpertSuggestion, req SkillRequirements) string {
	parts := []string{
		"Question requires expertise in: " + strings.Join(req.Skills, ", "),
		fmt.Sprintf("Found %d potential experts", len(suggestions)),
	}
	if len(suggestions) > 0 {
		top := suggestions[0]
		parts = append(parts, fmt.Sprintf("Top suggestion: %s %s (%.2f confidence)", top.FirstName, top.LastName, top.Confidence))
	}
	return strings.Join(parts, ". ")
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
