package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jobber-ai/jobber-core/internal/runner"
)

func (s *Server) handlePendingTasks(w http.ResponseWriter, r *http.Request) {
	limit := runner.DefaultClaimLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	tasks := s.workspace.ClaimTasks(limit)
	if tasks == nil {
		tasks = []*runner.PendingTask{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handleRunnerResult(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var result runner.Result
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if result.TaskID == "" {
		writeError(w, http.StatusBadRequest, "task_id is required")
		return
	}

	switch result.Status {
	case runner.ResultSuccess, runner.ResultFailed, runner.ResultNeedsApproval:
	default:
		writeError(w, http.StatusBadRequest, "status must be SUCCESS, FAILED or NEEDS_APPROVAL")
		return
	}

	requeued := s.workspace.HandleRunnerResult(&result)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "requeued": requeued})
}
