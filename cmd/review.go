package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobber-ai/jobber-core/internal/application"
	"github.com/jobber-ai/jobber-core/internal/catalog"
	"github.com/jobber-ai/jobber-core/internal/logger"
)

const (
	PromptApprove = "Approve"
	PromptReject  = "Reject"
	PromptSkip    = "Skip"
	PromptBack    = "back"
)

var errReviewDone = errors.New("review finished")

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review applications waiting for approval on a running server",
	Run: func(_ *cobra.Command, _ []string) {
		review()
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringP("server", "s", "http://localhost:8787", "base URL of a running jobber-core server")

	viper.BindPFlag("server", reviewCmd.Flags().Lookup("server"))
}

// stateResponse is the subset of /api/state the review loop needs.
type stateResponse struct {
	Jobs         []*catalog.Posting    `json:"jobs"`
	Applications []*application.Record `json:"applications"`
}

type reviewClient struct {
	baseURL string
	http    *http.Client
}

func review() {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	client := &reviewClient{
		baseURL: strings.TrimRight(viper.GetString("server"), "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}

	for {
		if err := reviewOnce(client, logger); err != nil {
			if errors.Is(err, errReviewDone) {
				return
			}
			logger.Fatal("review failed", zap.Error(err))
		}
	}
}

func reviewOnce(client *reviewClient, logger *zap.Logger) error {
	state, err := client.state()
	if err != nil {
		return fmt.Errorf("fetching server state: %w", err)
	}

	waiting := make([]*application.Record, 0)
	for _, record := range state.Applications {
		if record.Status == application.StatusNeedsApproval {
			waiting = append(waiting, record)
		}
	}

	if len(waiting) == 0 {
		logger.Info("exiting", zap.String("reason", "no applications waiting for approval"))
		return errReviewDone
	}

	logger.Info("applications waiting for approval", zap.Int("count", len(waiting)))

	items := make([]string, 0, len(waiting))
	for _, record := range waiting {
		items = append(items, reviewLabel(record, state.Jobs))
	}

	appPrompt := promptui.Select{
		Label: "Choose an application and press ENTER",
		Items: append(items, PromptBack),
	}

	idx, selected, err := appPrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return errReviewDone
	}

	record := waiting[idx]

	actionPrompt := promptui.Select{
		Label: "Action",
		Items: []string{PromptApprove, PromptReject, PromptSkip},
	}

	_, action, err := actionPrompt.Run()
	if err != nil {
		return err
	}

	switch action {
	case PromptApprove:
		if err := client.jobAction(record.PostingID, "approve"); err != nil {
			return err
		}
		logger.Info("application approved", zap.String("job_id", record.PostingID))
	case PromptReject:
		if err := client.jobAction(record.PostingID, "reject"); err != nil {
			return err
		}
		logger.Info("application rejected", zap.String("job_id", record.PostingID))
	}

	return nil
}

func reviewLabel(record *application.Record, postings []*catalog.Posting) string {
	for _, posting := range postings {
		if posting.ID == record.PostingID {
			return fmt.Sprintf("%s %s / %s / %s", record.PostingID, posting.Title, posting.Company, record.Notes)
		}
	}
	return fmt.Sprintf("%s / %s", record.PostingID, record.Notes)
}

func (c *reviewClient) state() (*stateResponse, error) {
	resp, err := c.http.Get(c.baseURL + "/api/state")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var state stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *reviewClient) jobAction(jobID, action string) error {
	url := fmt.Sprintf("%s/api/jobs/%s/%s", c.baseURL, jobID, action)

	resp, err := c.http.Post(url, "application/json", bytes.NewReader(nil))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: bad status %s: %s", action, jobID, resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}
