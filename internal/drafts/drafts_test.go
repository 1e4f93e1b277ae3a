package drafts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jobber-ai/jobber-core/internal/catalog"
	"github.com/jobber-ai/jobber-core/internal/profile"
)

type stubGenerator struct {
	response string
	err      error
	called   int
}

func (s *stubGenerator) GenerateContent(context.Context, string) (string, error) {
	s.called++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testPosting() *catalog.Posting {
	return &catalog.Posting{
		ID:          "job-1",
		Title:       "Senior Go Engineer",
		Company:     "Acme",
		Description: "Build backend services.",
		Skills:      []string{"Go", "Kubernetes", "PostgreSQL", "Terraform", "AWS"},
	}
}

func testCandidate() *profile.Candidate {
	return &profile.Candidate{Name: "Test Candidate"}
}

func TestComposeWithoutGenerator(t *testing.T) {
	t.Parallel()

	artifacts := New(nil, nil).Compose(context.Background(), testPosting(), testCandidate())

	if !strings.Contains(artifacts.ResumeSummary, "Senior Go Engineer") {
		t.Fatalf("expected role in resume summary, got %q", artifacts.ResumeSummary)
	}
	// The summary carries at most four skills.
	if strings.Contains(artifacts.ResumeSummary, "AWS") {
		t.Fatalf("expected skill list capped at four, got %q", artifacts.ResumeSummary)
	}
	if !strings.Contains(artifacts.CoverLetter, "Acme") || !strings.Contains(artifacts.CoverLetter, "Test Candidate") {
		t.Fatalf("expected templated cover letter, got %q", artifacts.CoverLetter)
	}
	if !strings.Contains(artifacts.OutreachDraft, "Acme recruiter") {
		t.Fatalf("expected outreach draft, got %q", artifacts.OutreachDraft)
	}
	if artifacts.GeneratedAt.IsZero() {
		t.Fatalf("expected generation timestamp")
	}
}

func TestComposeUsesGeneratedCoverLetter(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{response: "Dear Acme team, here is my letter."}
	artifacts := New(gen, nil).Compose(context.Background(), testPosting(), testCandidate())

	if gen.called != 1 {
		t.Fatalf("expected one generator call, got %d", gen.called)
	}
	if artifacts.CoverLetter != "Dear Acme team, here is my letter." {
		t.Fatalf("expected generated cover letter, got %q", artifacts.CoverLetter)
	}
}

func TestComposeGeneratorFailureFallsBack(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{err: errors.New("model unavailable")}
	artifacts := New(gen, nil).Compose(context.Background(), testPosting(), testCandidate())

	if !strings.Contains(artifacts.CoverLetter, "Hi Acme team") {
		t.Fatalf("expected template fallback, got %q", artifacts.CoverLetter)
	}
}

func TestComposeBlankGenerationFallsBack(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{response: "   \n"}
	artifacts := New(gen, nil).Compose(context.Background(), testPosting(), testCandidate())

	if !strings.Contains(artifacts.CoverLetter, "Hi Acme team") {
		t.Fatalf("expected template fallback for blank generation, got %q", artifacts.CoverLetter)
	}
}
