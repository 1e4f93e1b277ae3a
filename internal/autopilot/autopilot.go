// Package autopilot decides whether the engine may act on a scored posting
// without a human in the loop. The decision function is pure and total: every
// input resolves to exactly one action, and the default is always BLOCK.
package autopilot

import (
	"fmt"
	"slices"

	"github.com/jobber-ai/jobber-core/internal/catalog"
	"github.com/jobber-ai/jobber-core/internal/profile"
	"github.com/jobber-ai/jobber-core/internal/scoring"
)

// Action is the gate outcome for an application attempt.
type Action string

const (
	ActionAutoApply       Action = "AUTO_APPLY"
	ActionRequireApproval Action = "REQUIRE_APPROVAL"
	ActionBlock           Action = "BLOCK"
)

// Decision carries the chosen action and the ordered human-readable reasons
// behind it.
type Decision struct {
	Action  Action   `json:"action"`
	Reasons []string `json:"reasons"`
}

const (
	DefaultAutoApplyThreshold = 85
	DefaultApprovalThreshold  = 70
)

// Thresholds are the two score gates the policy compares against.
type Thresholds struct {
	AutoApply int `mapstructure:"auto-apply-threshold"`
	Approval  int `mapstructure:"approval-threshold"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		AutoApply: DefaultAutoApplyThreshold,
		Approval:  DefaultApprovalThreshold,
	}
}

// Normalize returns thresholds clamped to the valid score range. Invalid or
// inverted configuration falls back to the defaults.
func (t Thresholds) Normalize() Thresholds {
	if t.AutoApply <= 0 || t.AutoApply > 100 {
		t.AutoApply = DefaultAutoApplyThreshold
	}
	if t.Approval <= 0 || t.Approval > 100 {
		t.Approval = DefaultApprovalThreshold
	}
	if t.Approval > t.AutoApply {
		return DefaultThresholds()
	}
	return t
}

// Evaluate gates an application attempt. Rules are checked in strict
// precedence order and the first match wins.
func Evaluate(posting *catalog.Posting, score *scoring.Score, candidate *profile.Candidate, thresholds Thresholds) Decision {
	thresholds = thresholds.Normalize()

	if posting.RequiresClearance || hasFlag(score, scoring.FlagClearanceRequired) {
		return Decision{
			Action:  ActionBlock,
			Reasons: []string{"Clearance is required for this role."},
		}
	}

	if candidate.RemoteRequired && (posting.LocationType == catalog.LocationOnsite || hasFlag(score, scoring.FlagOnsiteOnly)) {
		return Decision{
			Action:  ActionBlock,
			Reasons: []string{"Role is onsite-only while remote is required."},
		}
	}

	if posting.ApplyFlow == catalog.ApplyFlowWorkday {
		return Decision{
			Action:  ActionRequireApproval,
			Reasons: []string{"Workday flow requires manual review."},
		}
	}

	if score.Total >= thresholds.AutoApply && len(score.RiskFlags) == 0 && posting.ApplyFlow == catalog.ApplyFlowSimple {
		return Decision{
			Action:  ActionAutoApply,
			Reasons: []string{fmt.Sprintf("Score %d meets auto-apply threshold.", score.Total)},
		}
	}

	if score.Total >= thresholds.Approval && score.Total < thresholds.AutoApply {
		return Decision{
			Action:  ActionRequireApproval,
			Reasons: []string{fmt.Sprintf("Score %d is in manual approval range.", score.Total)},
		}
	}

	// Fail closed: anything unmatched is blocked, never auto-applied.
	return Decision{
		Action:  ActionBlock,
		Reasons: []string{fmt.Sprintf("Score %d is below approval threshold.", score.Total)},
	}
}

func hasFlag(score *scoring.Score, flag string) bool {
	return slices.Contains(score.RiskFlags, flag)
}
