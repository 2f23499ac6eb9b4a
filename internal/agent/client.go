package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/rpggio/spacetracker/internal/domain/submission"
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d %s: %s", e.Status, e.Code, e.Message)
}

// BackendClient calls the extension REST API with a bearer token.
type BackendClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewBackendClient creates a client for baseURL. A nil httpClient uses a
// client with a 10 second timeout.
func NewBackendClient(baseURL, token string, httpClient *http.Client) *BackendClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// SubmitSpace posts a finished session.
func (c *BackendClient) SubmitSpace(ctx context.Context, req submission.Request) (submission.Result, error) {
	var res submission.Result
	if err := c.do(ctx, http.MethodPost, "/extension/spaces/submit", req, &res); err != nil {
		return submission.Result{}, err
	}
	return res, nil
}

// ClaimReward claims an unclaimed space reward and returns its amount.
func (c *BackendClient) ClaimReward(ctx context.Context, rewardID string) (int, error) {
	var res struct {
		Success bool `json:"success"`
		Amount  int  `json:"amount"`
	}
	if err := c.do(ctx, http.MethodPost, "/extension/rewards/claim", map[string]string{"rewardId": rewardID}, &res); err != nil {
		return 0, err
	}
	return res.Amount, nil
}

// RewardState fetches the caller's reward summary.
func (c *BackendClient) RewardState(ctx context.Context) (reward.StateView, error) {
	var view reward.StateView
	if err := c.do(ctx, http.MethodGet, "/users/rewards", nil, &view); err != nil {
		return reward.StateView{}, err
	}
	return view, nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&errBody) == nil {
			apiErr.Code = errBody.Code
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
