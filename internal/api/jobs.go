package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/jobber-ai/jobber-core/internal/catalog"
)

// discoverJob is the ingestion payload for one posting descriptor.
type discoverJob struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Company           string   `json:"company"`
	URL               string   `json:"url"`
	Description       string   `json:"description"`
	Skills            []string `json:"skills"`
	Compensation      int      `json:"compensation"`
	ApplyFlow         string   `json:"applyFlow"`
	LocationType      string   `json:"locationType"`
	RequiresClearance bool     `json:"requiresClearance"`
}

type discoverRequest struct {
	Jobs []discoverJob `json:"jobs"`
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req discoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Jobs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one job is required")
		return
	}

	postings := make([]*catalog.Posting, 0, len(req.Jobs))
	for i, job := range req.Jobs {
		posting, err := job.toPosting()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("jobs[%d]: %s", i, err))
			return
		}
		postings = append(postings, posting)
	}

	stored := s.workspace.Discover(postings)
	writeJSON(w, http.StatusCreated, map[string]any{"jobs": stored})
}

func (j discoverJob) toPosting() (*catalog.Posting, error) {
	if strings.TrimSpace(j.Title) == "" {
		return nil, errors.New("title is required")
	}
	if strings.TrimSpace(j.Company) == "" {
		return nil, errors.New("company is required")
	}
	if strings.TrimSpace(j.Description) == "" {
		return nil, errors.New("description is required")
	}
	if parsed, err := url.Parse(j.URL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.New("url must be absolute")
	}

	applyFlow := catalog.ApplyFlow(j.ApplyFlow)
	if !catalog.ValidApplyFlow(applyFlow) {
		return nil, fmt.Errorf("unknown apply flow %q", j.ApplyFlow)
	}

	locationType := catalog.LocationType(j.LocationType)
	if !catalog.ValidLocationType(locationType) {
		return nil, fmt.Errorf("unknown location type %q", j.LocationType)
	}

	skills := j.Skills
	if skills == nil {
		skills = []string{}
	}

	return &catalog.Posting{
		ID:                j.ID,
		Title:             j.Title,
		Company:           j.Company,
		URL:               j.URL,
		Description:       j.Description,
		Skills:            skills,
		Compensation:      j.Compensation,
		ApplyFlow:         applyFlow,
		LocationType:      locationType,
		RequiresClearance: j.RequiresClearance,
	}, nil
}

func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	action := r.PathValue("action")

	var (
		body any
		err  error
	)

	switch action {
	case "score":
		var scored any
		scored, err = s.workspace.Score(r.Context(), jobID)
		body = map[string]any{"scored": scored}
	case "draft":
		var draft any
		draft, err = s.workspace.Draft(r.Context(), jobID)
		body = map[string]any{"draft": draft}
	case "queue-apply":
		status, reasons, queueErr := s.workspace.QueueApply(r.Context(), jobID)
		err = queueErr
		body = map[string]any{"result": map[string]any{"status": status, "reasons": reasons}}
	case "approve":
		var record any
		record, err = s.workspace.Approve(jobID)
		body = map[string]any{"application": record}
	case "reject":
		var record any
		record, err = s.workspace.Reject(jobID)
		body = map[string]any{"application": record}
	default:
		writeError(w, http.StatusNotFound, "unknown job action")
		return
	}

	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, catalog.ErrUnknownPosting) {
			status = http.StatusNotFound
		}
		s.logger.Debug("job action failed",
			zap.String("job_id", jobID),
			zap.String("action", action),
			zap.Error(err),
		)
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, body)
}
