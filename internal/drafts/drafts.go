// Package drafts composes application artifacts (resume summary, cover
// letter, outreach note) for a posting. Cover letters are model-generated
// when a backend is configured and fall back to a deterministic template, so
// drafting never fails into the caller.
package drafts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobber-ai/jobber-core/internal/catalog"
	"github.com/jobber-ai/jobber-core/internal/profile"
)

// Artifacts are the stored draft outputs for a posting.
type Artifacts struct {
	ResumeSummary string    `json:"resumeSummary"`
	CoverLetter   string    `json:"coverLetter"`
	OutreachDraft string    `json:"outreachDraft"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Drafter builds artifacts. A nil generator means template-only drafting.
type Drafter struct {
	generator contentGenerator
	logger    *zap.Logger
}

func New(generator contentGenerator, logger *zap.Logger) *Drafter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Drafter{generator: generator, logger: logger}
}

// Compose builds the artifacts for a posting. It never returns an error:
// generator failures degrade to the deterministic cover letter template.
func (d *Drafter) Compose(ctx context.Context, posting *catalog.Posting, candidate *profile.Candidate) *Artifacts {
	topSkills := posting.Skills
	if len(topSkills) > 4 {
		topSkills = topSkills[:4]
	}

	return &Artifacts{
		ResumeSummary: fmt.Sprintf("Target role: %s. Top matching skills: %s.", posting.Title, strings.Join(topSkills, ", ")),
		CoverLetter:   d.coverLetter(ctx, posting, candidate),
		OutreachDraft: fmt.Sprintf("Hi %s recruiter, I just applied to the %s role and would love to connect.", posting.Company, posting.Title),
		GeneratedAt:   time.Now().UTC(),
	}
}

func (d *Drafter) coverLetter(ctx context.Context, posting *catalog.Posting, candidate *profile.Candidate) string {
	fallback := fmt.Sprintf(
		"Hi %s team,\n\nI am excited about the %s role and believe my profile aligns well with your requirements.\n\nBest,\n%s",
		posting.Company, posting.Title, candidate.Name,
	)

	if d.generator == nil {
		return fallback
	}

	prompt := strings.Join([]string{
		"Write a concise job-specific cover letter in 150 words or less.",
		fmt.Sprintf("Candidate: %s", candidate.Name),
		fmt.Sprintf("Role: %s at %s", posting.Title, posting.Company),
		fmt.Sprintf("Job description: %s", posting.Description),
	}, "\n")

	generated, err := d.generator.GenerateContent(ctx, prompt)
	if err != nil {
		d.logger.Warn("cover letter generation failed, using template",
			zap.String("posting_id", posting.ID),
			zap.Error(err),
		)
		return fallback
	}

	if text := strings.TrimSpace(generated); text != "" {
		return text
	}
	return fallback
}
