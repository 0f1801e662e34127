package cache

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/askhub-io/askhub/internal/agents"
)

// Cache windows per analysis kind. Expertise changes slowly; availability is
// a short-lived signal.
const (
	SuggestionTTL   = time.Hour
	SimilarityTTL   = 30 * time.Minute
	GapTTL          = time.Hour
	ExpertiseTTL    = 24 * time.Hour
	AvailabilityTTL = 5 * time.Minute
)

const performanceKey = "agents:performance"

// AgentCache is the Redis-backed collaborator for the agent subsystem. It
// implements agents.SuggestionCache, agents.SimilarityCache, agents.GapCache,
// agents.ProfileCache, agents.AvailabilitySource, and agents.PerformanceRecorder.
type AgentCache struct {
	client *Client
}

func NewAgentCache(client *Client) *AgentCache {
	return &AgentCache{client: client}
}

func (a *AgentCache) GetSuggestions(ctx context.Context, questionID int64) (*agents.Result, error) {
	var result agents.Result
	found, err := a.client.GetJSON(ctx, suggestionKey(questionID), &result)
	if err != nil || !found {
		return nil, err
	}
	return &result, nil
}

func (a *AgentCache) SetSuggestions(ctx context.Context, questionID int64, r *agents.Result) error {
	return a.client.SetJSON(ctx, suggestionKey(questionID), r, SuggestionTTL)
}

func (a *AgentCache) GetSimilar(ctx context.Context, questionID int64) (*agents.Result, error) {
	var result agents.Result
	found, err := a.client.GetJSON(ctx, similarKey(questionID), &result)
	if err != nil || !found {
		return nil, err
	}
	return &result, nil
}

func (a *AgentCache) SetSimilar(ctx context.Context, questionID int64, r *agents.Result) error {
	return a.client.SetJSON(ctx, similarKey(questionID), r, SimilarityTTL)
}

func (a *AgentCache) GetGaps(ctx context.Context, questionID int64) (*agents.Result, error) {
	var result agents.Result
	found, err := a.client.GetJSON(ctx, gapKey(questionID), &result)
	if err != nil || !found {
		return nil, err
	}
	return &result, nil
}

func (a *AgentCache) SetGaps(ctx context.Context, questionID int64, r *agents.Result) error {
	return a.client.SetJSON(ctx, gapKey(questionID), r, GapTTL)
}

// GetProfile returns a user's cached expertise profile, or (nil, nil) when no
// profile is cached.
func (a *AgentCache) GetProfile(ctx context.Context, userID int64) ([]agents.SkillEvidence, error) {
	var evidence []agents.SkillEvidence
	found, err := a.client.GetJSON(ctx, expertiseKey(userID), &evidence)
	if err != nil || !found {
		return nil, err
	}
	return evidence, nil
}

func (a *AgentCache) SetProfile(ctx context.Context, userID int64, evidence []agents.SkillEvidence) error {
	return a.client.SetJSON(ctx, expertiseKey(userID), evidence, ExpertiseTTL)
}

// Availability returns a cached score for the user, generating and caching
// a fresh one on a miss. Scores stay in [0.5, 1.0] until a real calendar or
// presence integration replaces this.
func (a *AgentCache) Availability(ctx context.Context, userID int64) (float64, error) {
	key := availabilityKey(userID)

	var score float64
	found, err := a.client.GetJSON(ctx, key, &score)
	if err != nil {
		return 0, err
	}
	if found {
		return score, nil
	}

	score = 0.5 + rand.Float64()*0.5
	if err := a.client.SetJSON(ctx, key, score, AvailabilityTTL); err != nil {
		return 0, err
	}
	return score, nil
}

func (a *AgentCache) RecordAgentRun(ctx context.Context, agent string, executed bool) error {
	if err := a.client.HIncr(ctx, performanceKey, agent+":runs"); err != nil {
		return err
	}
	if executed {
		return a.client.HIncr(ctx, performanceKey, agent+":executed")
	}
	return a.client.HIncr(ctx, performanceKey, agent+":gated")
}

// RecordFeedback counts accepted and rejected suggestions per agent.
func (a *AgentCache) RecordFeedback(ctx context.Context, agent string, accepted bool) error {
	field := agent + ":rejected"
	if accepted {
		field = agent + ":accepted"
	}
	return a.client.HIncr(ctx, performanceKey, field)
}

// PerformanceCounters returns the raw per-agent counters.
func (a *AgentCache) PerformanceCounters(ctx context.Context) (map[string]int64, error) {
	raw, err := a.client.HGetAll(ctx, performanceKey)
	if err != nil {
		return nil, err
	}

	counters := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		counters[field] = n
	}
	return counters, nil
}

func suggestionKey(questionID int64) string {
	return fmt.Sprintf("agents:suggestions:%d", questionID)
}

func similarKey(questionID int64) string {
	return fmt.Sprintf("agents:similar:%d", questionID)
}

func expertiseKey(userID int64) string {
	return fmt.Sprintf("agents:expertise:%d", userID)
}

func gapKey(questionID int64) string {
	return fmt.Sprintf("agents:gaps:%d", questionID)
}

func availabilityKey(userID int64) string {
	return fmt.Sprintf("agents:availability:%d", userID)
}
