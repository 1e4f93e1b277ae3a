// Package scoring produces fitness scores for postings against a candidate
// profile. The composite score is a weighted blend of heuristic components
// and an optional model-backed semantic fit component.
package scoring

import (
	"context"
	"time"

	"github.com/jobber-ai/jobber-core/internal/catalog"
	"github.com/jobber-ai/jobber-core/internal/profile"
)

// Risk flags consumed by the autopilot policy.
const (
	FlagClearanceRequired = "CLEARANCE_REQUIRED"
	FlagOnsiteOnly        = "ONSITE_ONLY"
	FlagWorkdayFlow       = "WORKDAY_FLOW"
)

// Breakdown holds the per-component scores behind a composite total.
type Breakdown struct {
	TitleMatch        int `json:"titleMatch"`
	SkillsMatch       int `json:"skillsMatch"`
	CompensationMatch int `json:"compensationMatch"`
	RemoteMatch       int `json:"remoteMatch"`
	SemanticFit       int `json:"semanticFit"`
	WeightedTotal     int `json:"weightedTotal"`
}

// Score is the latest fitness rating for a posting. Re-scoring overwrites it.
type Score struct {
	PostingID string    `json:"jobId"`
	Total     int       `json:"totalScore"`
	RiskFlags []string  `json:"riskFlags"`
	Breakdown Breakdown `json:"breakdown"`
	ScoredAt  time.Time `json:"scoredAt"`
}

// Weights control the contribution of each component to the composite total.
type Weights struct {
	TitleMatch        float64 `mapstructure:"title-match"`
	SkillsMatch       float64 `mapstructure:"skills-match"`
	CompensationMatch float64 `mapstructure:"compensation-match"`
	RemoteMatch       float64 `mapstructure:"remote-match"`
	SemanticFit       float64 `mapstructure:"semantic-fit"`
}

func DefaultWeights() Weights {
	return Weights{
		TitleMatch:        0.2,
		SkillsMatch:       0.35,
		CompensationMatch: 0.15,
		RemoteMatch:       0.1,
		SemanticFit:       0.2,
	}
}

// Evaluator rates a posting against a candidate profile. Implementations must
// not mutate either argument.
type Evaluator interface {
	Evaluate(ctx context.Context, posting *catalog.Posting, candidate *profile.Candidate) (*Score, error)
}

// CollectRiskFlags derives the discrete risk tags for a posting.
func CollectRiskFlags(posting *catalog.Posting, candidate *profile.Candidate) []string {
	flags := make([]string, 0, 3)
	if posting.RequiresClearance {
		flags = append(flags, FlagClearanceRequired)
	}
	if candidate.RemoteRequired && posting.LocationType == catalog.LocationOnsite {
		flags = append(flags, FlagOnsiteOnly)
	}
	if posting.ApplyFlow == catalog.ApplyFlowWorkday {
		flags = append(flags, FlagWorkdayFlow)
	}
	return flags
}
