package transport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/rpggio/spacetracker/internal/domain/submission"
)

// SpaceService accepts space submissions.
type SpaceService interface {
	Submit(ctx context.Context, userID string, req submission.Request) (submission.Result, error)
	Recent(ctx context.Context, userID string, limit int) ([]submission.SpaceTracking, error)
}

// RewardService exposes the reward ledger.
type RewardService interface {
	State(ctx context.Context, userID string) (reward.StateView, error)
	Claim(ctx context.Context, userID, rewardID string) (int, error)
	Rewards(ctx context.Context, userID string, opts reward.ListOptions) ([]reward.Reward, error)
}

// ActivityService lists the activity log.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, userID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services groups the domain services used by handlers.
type Services struct {
	Spaces   SpaceService
	Rewards  RewardService
	Activity ActivityService
}

// ExtensionConfig is served to agents from GET /extension/config.
type ExtensionConfig struct {
	DailyRewardCap      int                         `json:"dailyRewardCap"`
	SpaceMinDuration    float64                     `json:"spaceMinDuration"`
	RewardProbabilities map[reward.Category]float64 `json:"rewardProbabilities"`
}

// Config configures the HTTP router.
type Config struct {
	Services       Services
	AuthMiddleware func(http.Handler) http.Handler
	// MCP, when set, is mounted at /mcp outside the REST auth group. It
	// authenticates requests itself.
	MCP       http.Handler
	Extension ExtensionConfig
	Logger    *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	services  Services
	extension ExtensionConfig
	logger    *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	srv := &Server{services: cfg.Services, extension: cfg.Extension, logger: logger}

	r.Get("/health", srv.handleHealth)
	r.Get("/extension/config", srv.handleExtensionConfig)

	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}
		r.Post("/extension/spaces/submit", srv.handleSubmitSpace)
		r.Get("/extension/spaces", srv.handleListSpaces)
		r.Post("/extension/rewards/claim", srv.handleClaimReward)
		r.Get("/extension/activity", srv.handleActivity)
		r.Get("/users/rewards", srv.handleRewardState)
		r.Get("/users/rewards/history", srv.handleRewardHistory)
	})

	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/*", cfg.MCP)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleExtensionConfig(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, s.extension)
}

func (s *Server) handleSubmitSpace(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		s.writeErr(w, r, ErrUnauthorized)
		return
	}

	var req submission.Request
	if err := DecodeJSON(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	res, err := s.services.Spaces.Submit(r.Context(), userID, req)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

type spacesResponse struct {
	Spaces []submission.SpaceTracking `json:"spaces"`
}

func (s *Server) handleListSpaces(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		s.writeErr(w, r, ErrUnauthorized)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	spaces, err := s.services.Spaces.Recent(r.Context(), userID, limit)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if spaces == nil {
		spaces = []submission.SpaceTracking{}
	}
	WriteJSON(w, http.StatusOK, spacesResponse{Spaces: spaces})
}

type claimRequest struct {
	RewardID string `json:"rewardId"`
}

type claimResponse struct {
	Success bool `json:"success"`
	Amount  int  `json:"amount"`
}

func (s *Server) handleClaimReward(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		s.writeErr(w, r, ErrUnauthorized)
		return
	}

	var req claimRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	amount, err := s.services.Rewards.Claim(r.Context(), userID, req.RewardID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, claimResponse{Success: true, Amount: amount})
}

func (s *Server) handleRewardState(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		s.writeErr(w, r, ErrUnauthorized)
		return
	}

	view, err := s.services.Rewards.State(r.Context(), userID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

type rewardsResponse struct {
	Rewards []reward.Reward `json:"rewards"`
}

func (s *Server) handleRewardHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		s.writeErr(w, r, ErrUnauthorized)
		return
	}

	opts := reward.ListOptions{}
	if v := r.URL.Query().Get("claimed"); v != "" {
		claimed, err := strconv.ParseBool(v)
		if err != nil {
			s.writeErr(w, r, reward.ErrInvalidInput)
			return
		}
		opts.Claimed = &claimed
	}
	var err error
	if opts.Limit, err = queryInt(r, "limit"); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if opts.Offset, err = queryInt(r, "offset"); err != nil {
		s.writeErr(w, r, err)
		return
	}

	rewards, err := s.services.Rewards.Rewards(r.Context(), userID, opts)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if rewards == nil {
		rewards = []reward.Reward{}
	}
	WriteJSON(w, http.StatusOK, rewardsResponse{Rewards: rewards})
}

type activityResponse struct {
	Entries []activity.ActivityEntry `json:"entries"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		s.writeErr(w, r, ErrUnauthorized)
		return
	}

	opts := activity.ListActivityOptions{}
	if v := r.URL.Query().Get("type"); v != "" {
		typ := activity.ActivityType(v)
		opts.ActivityType = &typ
	}
	var err error
	if opts.Limit, err = queryInt(r, "limit"); err != nil {
		s.writeErr(w, r, err)
		return
	}

	entries, err := s.services.Activity.GetRecentActivity(r.Context(), userID, opts)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if entries == nil {
		entries = []activity.ActivityEntry{}
	}
	WriteJSON(w, http.StatusOK, activityResponse{Entries: entries})
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := MapError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "internal error"
	}
	WriteError(w, status, code, message)
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errBadQuery
	}
	return n, nil
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
