package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/rpggio/spacetracker/internal/domain/submission"
	"github.com/stretchr/testify/require"
)

type fakeSpaces struct {
	lastUser string
	lastReq  submission.Request
	err      error
}

func (f *fakeSpaces) Submit(_ context.Context, userID string, req submission.Request) (submission.Result, error) {
	f.lastUser = userID
	f.lastReq = req
	if f.err != nil {
		return submission.Result{}, f.err
	}
	eligible := req.Duration != nil && *req.Duration >= 1
	return submission.Result{Success: true, SpaceTrackingID: "trk-1", EligibleForGrant: eligible}, nil
}

func (f *fakeSpaces) Recent(context.Context, string, int) ([]submission.SpaceTracking, error) {
	return nil, nil
}

type fakeRewards struct {
	claimErr  error
	lastOpts  reward.ListOptions
	claimedID string
}

func (f *fakeRewards) State(_ context.Context, userID string) (reward.StateView, error) {
	return reward.StateView{UserID: userID, DailyCap: 100, RemainingCap: 100}, nil
}

func (f *fakeRewards) Claim(_ context.Context, _ string, rewardID string) (int, error) {
	if rewardID == "" {
		return 0, reward.ErrInvalidInput
	}
	if f.claimErr != nil {
		return 0, f.claimErr
	}
	f.claimedID = rewardID
	return 7, nil
}

func (f *fakeRewards) Rewards(_ context.Context, _ string, opts reward.ListOptions) ([]reward.Reward, error) {
	f.lastOpts = opts
	return []reward.Reward{{ID: "r1", Amount: 3}}, nil
}

type fakeActivity struct{}

func (fakeActivity) GetRecentActivity(context.Context, string, activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	return nil, nil
}

type staticResolver struct {
	user string
}

func (r *staticResolver) ResolveUser(_ context.Context, token string) (string, error) {
	if token != "token" {
		return "", ErrUnauthorized
	}
	return r.user, nil
}

func newTestServer(t *testing.T, spaces *fakeSpaces, rewards *fakeRewards) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(NewServer(Config{
		Services:       Services{Spaces: spaces, Rewards: rewards, Activity: fakeActivity{}},
		AuthMiddleware: AuthMiddleware(&staticResolver{user: "user1"}),
		Extension: ExtensionConfig{
			DailyRewardCap:      100,
			SpaceMinDuration:    1,
			RewardProbabilities: reward.DefaultProbabilities(),
		},
	}))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHTTPServer_SubmitSpace(t *testing.T) {
	spaces := &fakeSpaces{}
	server := newTestServer(t, spaces, &fakeRewards{})

	body := `{"spaceId":"1mnxeNVXrYvKX","title":"State of Type","host":"Tex",
		"startTime":"2026-03-14T18:00:00Z","endTime":"2026-03-14T18:02:00Z","duration":2,"rewardAmount":50}`
	resp := do(t, http.MethodPost, server.URL+"/extension/spaces/submit", "token", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[submission.Result](t, resp)
	require.True(t, res.Success)
	require.True(t, res.EligibleForGrant)
	require.Equal(t, "user1", spaces.lastUser)
	require.True(t, spaces.lastReq.StartTime.Equal(time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)))
}

func TestHTTPServer_SubmitSpaceErrors(t *testing.T) {
	spaces := &fakeSpaces{}
	server := newTestServer(t, spaces, &fakeRewards{})
	url := server.URL + "/extension/spaces/submit"

	resp := do(t, http.MethodPost, url, "", `{}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, url, "token", `{not json`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, CodeInvalidInput, decode[ErrorBody](t, resp).Code)

	spaces.err = fmt.Errorf("%w: missing duration", submission.ErrInvalidInput)
	resp = do(t, http.MethodPost, url, "token", `{"spaceId":"x"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	spaces.err = fmt.Errorf("creating space tracking: disk I/O error")
	resp = do(t, http.MethodPost, url, "token", `{"spaceId":"x"}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	errBody := decode[ErrorBody](t, resp)
	require.Equal(t, CodeInternal, errBody.Code)
	require.Equal(t, "internal error", errBody.Error)
}

func TestHTTPServer_ClaimReward(t *testing.T) {
	rewards := &fakeRewards{}
	server := newTestServer(t, &fakeSpaces{}, rewards)
	url := server.URL + "/extension/rewards/claim"

	resp := do(t, http.MethodPost, url, "token", `{"rewardId":"r1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"success":true,"amount":7}`, readBody(t, resp))
	require.Equal(t, "r1", rewards.claimedID)

	resp = do(t, http.MethodPost, url, "token", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	rewards.claimErr = reward.ErrRewardNotFound
	resp = do(t, http.MethodPost, url, "token", `{"rewardId":"nope"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, CodeNotFound, decode[ErrorBody](t, resp).Code)

	rewards.claimErr = reward.ErrAlreadyClaimed
	resp = do(t, http.MethodPost, url, "token", `{"rewardId":"r1"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHTTPServer_RewardState(t *testing.T) {
	server := newTestServer(t, &fakeSpaces{}, &fakeRewards{})

	resp := do(t, http.MethodGet, server.URL+"/users/rewards", "token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"userId":"user1","totalAccumulated":0,"dailyEarned":0,"dailyCap":100,
		"remainingCap":100,"currentStreak":0,"lastRewardDate":null}`, readBody(t, resp))

	resp = do(t, http.MethodGet, server.URL+"/users/rewards", "bad", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPServer_RewardHistoryQuery(t *testing.T) {
	rewards := &fakeRewards{}
	server := newTestServer(t, &fakeSpaces{}, rewards)

	resp := do(t, http.MethodGet, server.URL+"/users/rewards/history?claimed=false&limit=5&offset=10", "token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, rewards.lastOpts.Claimed)
	require.False(t, *rewards.lastOpts.Claimed)
	require.Equal(t, 5, rewards.lastOpts.Limit)
	require.Equal(t, 10, rewards.lastOpts.Offset)

	resp = do(t, http.MethodGet, server.URL+"/users/rewards/history?limit=-1", "token", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPServer_PublicEndpoints(t *testing.T) {
	server := newTestServer(t, &fakeSpaces{}, &fakeRewards{})

	resp := do(t, http.MethodGet, server.URL+"/health", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, server.URL+"/extension/config", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cfg := decode[ExtensionConfig](t, resp)
	require.Equal(t, 100, cfg.DailyRewardCap)
	require.InDelta(t, 0.5, cfg.RewardProbabilities[reward.CategorySpace], 1e-9)

	resp = do(t, http.MethodGet, server.URL+"/extension/activity", "token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"entries":[]}`, readBody(t, resp))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.String()
}
