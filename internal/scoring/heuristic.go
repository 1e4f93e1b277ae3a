package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobber-ai/jobber-core/internal/catalog"
	"github.com/jobber-ai/jobber-core/internal/logger"
	"github.com/jobber-ai/jobber-core/internal/profile"
)

const (
	// Neutral score used when either side of the compensation comparison
	// is missing.
	neutralCompensationScore = 70

	defaultMaxLogLength = 200
)

// contentGenerator produces free-form text for a prompt. The Gemini generator
// satisfies it; tests provide stubs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Heuristic is the default Evaluator. Component scores are computed locally;
// the semantic fit component is delegated to a content generator when one is
// configured and falls back to a deterministic blend otherwise.
type Heuristic struct {
	generator contentGenerator
	weights   Weights
	logger    *zap.Logger
	maxLogLen int
}

// HeuristicOption configures a Heuristic.
type HeuristicOption func(*Heuristic)

// WithGenerator supplies the model backend for the semantic fit component.
func WithGenerator(g contentGenerator) HeuristicOption {
	return func(h *Heuristic) { h.generator = g }
}

// WithWeights overrides the default component weights.
func WithWeights(w Weights) HeuristicOption {
	return func(h *Heuristic) { h.weights = w }
}

// WithMaxLogLength limits prompt/response previews in debug logs.
func WithMaxLogLength(n int) HeuristicOption {
	return func(h *Heuristic) {
		if n > 0 {
			h.maxLogLen = n
		}
	}
}

func NewHeuristic(log *zap.Logger, opts ...HeuristicOption) *Heuristic {
	if log == nil {
		log = zap.NewNop()
	}

	h := &Heuristic{
		weights:   DefaultWeights(),
		logger:    log,
		maxLogLen: defaultMaxLogLength,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Evaluate computes the composite fitness score. It never fails: a generator
// error degrades to the deterministic fallback for the semantic component.
func (h *Heuristic) Evaluate(ctx context.Context, posting *catalog.Posting, candidate *profile.Candidate) (*Score, error) {
	breakdown := Breakdown{
		TitleMatch:        titleScore(posting, candidate),
		SkillsMatch:       skillsScore(posting, candidate),
		CompensationMatch: compensationScore(posting, candidate),
		RemoteMatch:       remoteScore(posting, candidate),
	}
	breakdown.SemanticFit = h.semanticScore(ctx, posting, candidate, breakdown)

	breakdown.WeightedTotal = clampScore(
		float64(breakdown.TitleMatch)*h.weights.TitleMatch +
			float64(breakdown.SkillsMatch)*h.weights.SkillsMatch +
			float64(breakdown.CompensationMatch)*h.weights.CompensationMatch +
			float64(breakdown.RemoteMatch)*h.weights.RemoteMatch +
			float64(breakdown.SemanticFit)*h.weights.SemanticFit,
	)

	return &Score{
		PostingID: posting.ID,
		Total:     breakdown.WeightedTotal,
		RiskFlags: CollectRiskFlags(posting, candidate),
		Breakdown: breakdown,
		ScoredAt:  time.Now().UTC(),
	}, nil
}

// Fallback produces a purely local score with no model involvement. The
// workspace uses it when a custom evaluator fails.
func Fallback(posting *catalog.Posting, candidate *profile.Candidate) *Score {
	h := NewHeuristic(zap.NewNop())
	score, _ := h.Evaluate(context.Background(), posting, candidate)
	return score
}

func (h *Heuristic) semanticScore(ctx context.Context, posting *catalog.Posting, candidate *profile.Candidate, breakdown Breakdown) int {
	fallback := clampScore(float64(breakdown.TitleMatch+breakdown.SkillsMatch) / 2)
	if h.generator == nil {
		return fallback
	}

	prompt, err := buildFitPrompt(posting, candidate)
	if err != nil {
		h.logger.Warn("building semantic fit prompt failed", zap.Error(err))
		return fallback
	}

	h.logger.Debug("semantic fit request",
		zap.String("posting_id", posting.ID),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, h.maxLogLen)),
	)

	raw, err := h.generator.GenerateContent(ctx, prompt)
	if err != nil {
		h.logger.Warn("semantic fit generation failed, using heuristic fallback",
			zap.String("posting_id", posting.ID),
			zap.Error(err),
		)
		return fallback
	}

	parsed, err := ParseFitScore(raw)
	if err != nil {
		h.logger.Warn("semantic fit response rejected, using heuristic fallback",
			zap.String("posting_id", posting.ID),
			zap.String("response_preview", logger.TruncateForLog(raw, h.maxLogLen)),
			zap.Error(err),
		)
		return fallback
	}

	h.logger.Debug("semantic fit response",
		zap.String("posting_id", posting.ID),
		zap.Int("score", parsed),
	)

	return parsed
}

func buildFitPrompt(posting *catalog.Posting, candidate *profile.Candidate) (string, error) {
	candidateJSON, err := json.Marshal(candidate)
	if err != nil {
		return "", fmt.Errorf("marshal candidate payload: %w", err)
	}

	postingJSON, err := json.Marshal(posting)
	if err != nil {
		return "", fmt.Errorf("marshal posting payload: %w", err)
	}

	return strings.Join([]string{
		"Return ONLY a numeric fit score from 0-100.",
		"Candidate profile:",
		string(candidateJSON),
		"Job posting:",
		string(postingJSON),
	}, "\n"), nil
}

var tokenSplit = regexp.MustCompile(`[^a-z0-9+.#-]+`)

func tokenSet(value string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range tokenSplit.Split(strings.ToLower(value), -1) {
		if token != "" {
			tokens[token] = struct{}{}
		}
	}
	return tokens
}

// overlapPercent rates how much of the candidate set appears in the reference
// set, as a 0-100 score.
func overlapPercent(candidate, reference map[string]struct{}) int {
	if len(candidate) == 0 || len(reference) == 0 {
		return 0
	}

	hits := 0
	for token := range candidate {
		if _, ok := reference[token]; ok {
			hits++
		}
	}
	return clampScore(float64(hits) / float64(len(candidate)) * 100)
}

func titleScore(posting *catalog.Posting, candidate *profile.Candidate) int {
	return overlapPercent(
		tokenSet(strings.Join(candidate.TargetTitles, " ")),
		tokenSet(posting.Title),
	)
}

func skillsScore(posting *catalog.Posting, candidate *profile.Candidate) int {
	return overlapPercent(
		tokenSet(strings.Join(posting.Skills, " ")),
		tokenSet(strings.Join(candidate.Skills, " ")),
	)
}

func compensationScore(posting *catalog.Posting, candidate *profile.Candidate) int {
	if candidate.MinCompensation == 0 || posting.Compensation == 0 {
		return neutralCompensationScore
	}
	if posting.Compensation >= candidate.MinCompensation {
		return 100
	}

	gapRatio := math.Max(0, 1-float64(posting.Compensation)/float64(candidate.MinCompensation))
	return clampScore(100 - gapRatio*100)
}

func remoteScore(posting *catalog.Posting, candidate *profile.Candidate) int {
	if !candidate.RemoteRequired {
		return 100
	}

	switch posting.LocationType {
	case catalog.LocationRemote:
		return 100
	case catalog.LocationHybrid:
		return 50
	default:
		return 0
	}
}

func clampScore(score float64) int {
	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
