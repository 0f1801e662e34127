package agents

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/askhub-io/askhub/internal/domain"
)

// SuggestionStore persists suggestions produced by executed agents and stamps
// questions whose orchestration run has finished.
type SuggestionStore interface {
	CreateSuggestion(ctx context.Context, s *domain.Suggestion) (*domain.Suggestion, error)
	MarkAnalyzed(ctx context.Context, questionID int64) error
}

// PerformanceRecorder tracks per-agent run counters for the performance
// endpoint. Recording failures never affect orchestration.
type PerformanceRecorder interface {
	RecordAgentRun(ctx context.Context, agent string, executed bool) error
}

// AgentOutcome is one agent's contribution to an orchestration run.
type AgentOutcome struct {
	Result *Result `json:"result,omitempty"`
	Action *Action `json:"action,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// OrchestrationResult is the combined output of a full perceive-reason-act
// cycle across all agents.
type OrchestrationResult struct {
	QuestionID int64                    `json:"question_id"`
	Agents     map[string]*AgentOutcome `json:"agents"`
	Confidence float64                  `json:"confidence"`
	Timestamp  time.Time                `json:"timestamp"`
}

// Orchestrator runs every registered agent over a question and gates their
// actions behind a shared confidence threshold. It holds no per-question
// state; concurrent orchestrations are independent.
type Orchestrator struct {
	agents      []Agent
	suggestions SuggestionStore
	performance PerformanceRecorder
	threshold   float64
	logger      *zap.Logger
}

// NewOrchestrator wires the agents behind a confidence threshold. Agents at
// or above the threshold act; the rest only report their reasoning.
func NewOrchestrator(agents []Agent, suggestions SuggestionStore, performance PerformanceRecorder, threshold float64, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if threshold <= 0 {
		threshold = 0.7
	}
	return &Orchestrator{
		agents:      agents,
		suggestions: suggestions,
		performance: performance,
		threshold:   threshold,
		logger:      logger,
	}
}

// Threshold returns the confidence gate applied to agent actions.
func (o *Orchestrator) Threshold() float64 { return o.threshold }

// ProcessQuestion runs one perceive-reason-act cycle. Perception happens
// once and is shared; reasoning fans out concurrently and every branch is
// awaited, so one slow or failing agent never suppresses the others.
func (o *Orchestrator) ProcessQuestion(ctx context.Context, q domain.Question, reqCtx Context) *OrchestrationResult {
	perception := Perceive(q, reqCtx)

	o.logger.Info("orchestration_start",
		zap.Int64("question_id", q.ID),
		zap.Int("agents", len(o.agents)),
		zap.Float64("threshold", o.threshold))

	outcomes := o.reasonAll(ctx, perception)

	for name, outcome := range outcomes {
		if outcome.Result == nil {
			continue
		}
		o.actOn(ctx, name, outcome)
	}

	result := &OrchestrationResult{
		QuestionID: q.ID,
		Agents:     outcomes,
		Confidence: aggregateConfidence(outcomes),
		Timestamp:  time.Now().UTC(),
	}

	// The question is stamped even when every agent was gated, so the
	// backfill worker never picks it up again.
	o.markAnalyzed(ctx, q.ID)

	o.logger.Info("orchestration_complete",
		zap.Int64("question_id", q.ID),
		zap.Float64("confidence", result.Confidence))
	return result
}

// reasonAll fans reasoning out across agents and waits for every branch.
func (o *Orchestrator) reasonAll(ctx context.Context, p *Perception) map[string]*AgentOutcome {
	type slot struct {
		name   string
		result *Result
		err    error
	}

	slots := make([]slot, len(o.agents))
	var wg sync.WaitGroup
	for i, agent := range o.agents {
		wg.Add(1)
		go func(i int, agent Agent) {
			defer wg.Done()
			result, err := agent.Reason(ctx, p)
			slots[i] = slot{name: agent.Name(), result: result, err: err}
		}(i, agent)
	}
	wg.Wait()

	outcomes := make(map[string]*AgentOutcome, len(slots))
	for _, s := range slots {
		outcome := &AgentOutcome{Result: s.result}
		if s.err != nil {
			outcome.Error = s.err.Error()
			outcome.Result = nil
			o.logger.Warn("agent reasoning failed", zap.String("agent", s.name), zap.Error(s.err))
		}
		outcomes[s.name] = outcome
	}
	return outcomes
}

// actOn applies the threshold gate and runs the agent's action when it
// clears. Suggestions are persisted only for executed actions, so nothing
// below the threshold ever reaches storage.
func (o *Orchestrator) actOn(ctx context.Context, name string, outcome *AgentOutcome) {
	result := outcome.Result

	if result.Confidence < o.threshold {
		outcome.Action = &Action{
			Type:      "below_threshold",
			Executed:  false,
			Warning:   "Below confidence threshold",
			Timestamp: time.Now().UTC(),
		}
		o.recordRun(ctx, name, false)
		o.logger.Info("agent_gated",
			zap.String("agent", name),
			zap.Float64("confidence", result.Confidence),
			zap.Float64("threshold", o.threshold))
		return
	}

	agent := o.findAgent(name)
	if agent == nil {
		return
	}

	action, err := agent.Act(ctx, result)
	if err != nil {
		outcome.Error = err.Error()
		o.recordRun(ctx, name, false)
		o.logger.Warn("agent action failed", zap.String("agent", name), zap.Error(err))
		return
	}
	outcome.Action = action

	if action.Executed {
		o.persistSuggestion(ctx, name, result)
	}
	o.recordRun(ctx, name, action.Executed)
}

func (o *Orchestrator) findAgent(name string) Agent {
	for _, a := range o.agents {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// persistSuggestion writes one suggestion row per executed agent. For
// routing results the top suggested expert is recorded.
func (o *Orchestrator) persistSuggestion(ctx context.Context, name string, result *Result) {
	if o.suggestions == nil {
		return
	}

	var suggestedUserID int64
	if len(result.Suggestions) > 0 {
		suggestedUserID = result.Suggestions[0].UserID
	}

	dbCtx, cancel := dbContext(ctx)
	defer cancel()

	_, err := o.suggestions.CreateSuggestion(dbCtx, &domain.Suggestion{
		AgentType:       name,
		QuestionID:      result.QuestionID,
		SuggestedUserID: suggestedUserID,
		Confidence:      result.Confidence,
		Reasoning:       result.Reasoning,
	})
	if err != nil {
		o.logger.Warn("suggestion persist failed",
			zap.String("agent", name),
			zap.Int64("question_id", result.QuestionID),
			zap.Error(err))
	}
}

func (o *Orchestrator) markAnalyzed(ctx context.Context, questionID int64) {
	if o.suggestions == nil {
		return
	}

	dbCtx, cancel := dbContext(ctx)
	defer cancel()

	if err := o.suggestions.MarkAnalyzed(dbCtx, questionID); err != nil {
		o.logger.Warn("analyzed stamp failed", zap.Int64("question_id", questionID), zap.Error(err))
	}
}

func (o *Orchestrator) recordRun(ctx context.Context, name string, executed bool) {
	if o.performance == nil {
		return
	}

	cacheCtx, cancel := cacheContext(ctx)
	defer cancel()

	if err := o.performance.RecordAgentRun(cacheCtx, name, executed); err != nil {
		o.logger.Warn("performance record failed", zap.String("agent", name), zap.Error(err))
	}
}

// aggregateConfidence is the mean confidence over agents that produced a
// result.
func aggregateConfidence(outcomes map[string]*AgentOutcome) float64 {
	var sum float64
	var n int
	for _, o := range outcomes {
		if o.Result == nil {
			continue
		}
		sum += o.Result.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
