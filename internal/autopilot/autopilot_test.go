package autopilot

import (
	"strings"
	"testing"

	"github.com/jobber-ai/jobber-core/internal/catalog"
	"github.com/jobber-ai/jobber-core/internal/profile"
	"github.com/jobber-ai/jobber-core/internal/scoring"
)

func simplePosting() *catalog.Posting {
	return &catalog.Posting{
		ID:           "job-1",
		Title:        "Platform Engineer",
		ApplyFlow:    catalog.ApplyFlowSimple,
		LocationType: catalog.LocationRemote,
	}
}

func remoteCandidate() *profile.Candidate {
	return &profile.Candidate{Name: "Test Candidate", RemoteRequired: true}
}

func scoreOf(total int, flags ...string) *scoring.Score {
	if flags == nil {
		flags = []string{}
	}
	return &scoring.Score{PostingID: "job-1", Total: total, RiskFlags: flags}
}

func TestEvaluatePrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*catalog.Posting, *profile.Candidate)
		score     *scoring.Score
		expect    Action
		reasonHas string
	}{
		{
			name:      "clearance flag on posting blocks",
			mutate:    func(p *catalog.Posting, _ *profile.Candidate) { p.RequiresClearance = true },
			score:     scoreOf(99),
			expect:    ActionBlock,
			reasonHas: "Clearance",
		},
		{
			name:      "clearance risk flag blocks regardless of score",
			mutate:    func(_ *catalog.Posting, _ *profile.Candidate) {},
			score:     scoreOf(99, scoring.FlagClearanceRequired),
			expect:    ActionBlock,
			reasonHas: "Clearance",
		},
		{
			name:      "onsite role with remote requirement blocks",
			mutate:    func(p *catalog.Posting, _ *profile.Candidate) { p.LocationType = catalog.LocationOnsite },
			score:     scoreOf(95),
			expect:    ActionBlock,
			reasonHas: "onsite-only",
		},
		{
			name:      "onsite risk flag blocks",
			mutate:    func(_ *catalog.Posting, _ *profile.Candidate) {},
			score:     scoreOf(95, scoring.FlagOnsiteOnly),
			expect:    ActionBlock,
			reasonHas: "onsite-only",
		},
		{
			name:      "onsite role allowed when remote not required",
			mutate:    func(p *catalog.Posting, c *profile.Candidate) { p.LocationType = catalog.LocationOnsite; c.RemoteRequired = false },
			score:     scoreOf(90),
			expect:    ActionAutoApply,
			reasonHas: "auto-apply",
		},
		{
			name:      "workday flow always requires approval",
			mutate:    func(p *catalog.Posting, _ *profile.Candidate) { p.ApplyFlow = catalog.ApplyFlowWorkday },
			score:     scoreOf(99),
			expect:    ActionRequireApproval,
			reasonHas: "Workday",
		},
		{
			name:      "high score with clean flags auto-applies",
			mutate:    func(_ *catalog.Posting, _ *profile.Candidate) {},
			score:     scoreOf(85),
			expect:    ActionAutoApply,
			reasonHas: "auto-apply",
		},
		{
			name:      "high score with residual risk flag falls through to block",
			mutate:    func(_ *catalog.Posting, _ *profile.Candidate) {},
			score:     scoreOf(92, "SOME_FLAG"),
			expect:    ActionBlock,
			reasonHas: "below approval",
		},
		{
			name:      "high score on restricted flow falls through to block",
			mutate:    func(p *catalog.Posting, _ *profile.Candidate) { p.ApplyFlow = catalog.ApplyFlowGreenhouse },
			score:     scoreOf(95),
			expect:    ActionBlock,
			reasonHas: "below approval",
		},
		{
			name:      "approval band requires approval",
			mutate:    func(_ *catalog.Posting, _ *profile.Candidate) {},
			score:     scoreOf(70),
			expect:    ActionRequireApproval,
			reasonHas: "approval range",
		},
		{
			name:      "upper edge of approval band requires approval",
			mutate:    func(_ *catalog.Posting, _ *profile.Candidate) {},
			score:     scoreOf(84),
			expect:    ActionRequireApproval,
			reasonHas: "approval range",
		},
		{
			name:      "low score blocks",
			mutate:    func(_ *catalog.Posting, _ *profile.Candidate) {},
			score:     scoreOf(69),
			expect:    ActionBlock,
			reasonHas: "below approval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			posting := simplePosting()
			candidate := remoteCandidate()
			tt.mutate(posting, candidate)

			decision := Evaluate(posting, tt.score, candidate, DefaultThresholds())

			if decision.Action != tt.expect {
				t.Fatalf("expected action %s, got %s (reasons: %v)", tt.expect, decision.Action, decision.Reasons)
			}
			if len(decision.Reasons) == 0 {
				t.Fatalf("expected at least one reason")
			}
			if !strings.Contains(strings.Join(decision.Reasons, " "), tt.reasonHas) {
				t.Fatalf("expected reasons to mention %q, got %v", tt.reasonHas, decision.Reasons)
			}
		})
	}
}

func TestEvaluateCustomThresholds(t *testing.T) {
	t.Parallel()

	thresholds := Thresholds{AutoApply: 90, Approval: 50}

	decision := Evaluate(simplePosting(), scoreOf(85), remoteCandidate(), thresholds)
	if decision.Action != ActionRequireApproval {
		t.Fatalf("expected REQUIRE_APPROVAL with raised auto-apply threshold, got %s", decision.Action)
	}

	decision = Evaluate(simplePosting(), scoreOf(90), remoteCandidate(), thresholds)
	if decision.Action != ActionAutoApply {
		t.Fatalf("expected AUTO_APPLY at raised threshold, got %s", decision.Action)
	}
}

func TestThresholdsNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  Thresholds
		expect Thresholds
	}{
		{
			name:   "valid kept",
			input:  Thresholds{AutoApply: 90, Approval: 60},
			expect: Thresholds{AutoApply: 90, Approval: 60},
		},
		{
			name:   "zero values fall back to defaults",
			input:  Thresholds{},
			expect: DefaultThresholds(),
		},
		{
			name:   "out of range falls back to defaults",
			input:  Thresholds{AutoApply: 1000, Approval: -5},
			expect: DefaultThresholds(),
		},
		{
			name:   "inverted thresholds fall back to defaults",
			input:  Thresholds{AutoApply: 50, Approval: 80},
			expect: DefaultThresholds(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.input.Normalize(); got != tt.expect {
				t.Fatalf("expected %+v, got %+v", tt.expect, got)
			}
		})
	}
}
