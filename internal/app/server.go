package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/spacetracker/internal/clock"
	"github.com/rpggio/spacetracker/internal/config"
	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/rpggio/spacetracker/internal/domain/submission"
	"github.com/rpggio/spacetracker/internal/mcp"
	"github.com/rpggio/spacetracker/internal/sqlite"
	"github.com/rpggio/spacetracker/internal/transport"
)

// Server holds the wired backend services.
type Server struct {
	Ledger      *reward.Ledger
	Submissions *submission.Service
	Activity    *activity.Service
	APIKeys     *sqlite.APIKeyRepository
	MCP         *sdkmcp.Server
	Router      *chi.Mux
}

// NewServer wires repositories, services, the MCP server and the REST router
// over db.
func NewServer(db *sqlite.DB, cfg config.Config, clk clock.Clock, logger *slog.Logger) *Server {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rewardRepo := sqlite.NewRewardRepository(db)
	spaceRepo := sqlite.NewSpaceTrackingRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	apiKeys := sqlite.NewAPIKeyRepository(db)

	activitySvc := activity.NewService(activityRepo, clk, logger)
	ledger := reward.NewLedger(rewardRepo, clk, reward.Config{
		DailyCap:   cfg.Rewards.DailyCap,
		Policy:     cfg.Rewards.RewardPolicy(),
		Activities: activitySvc,
	}, logger)
	submissions := submission.NewService(spaceRepo, ledger, activitySvc, clk, submission.Options{
		MinDurationMinutes: cfg.Tracker.MinDurationMinutes,
	}, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Rewards:  ledger,
			Spaces:   submissions,
			Activity: activitySvc,
		},
		Resolver:    apiKeys,
		AuthEnabled: cfg.Auth.Enabled,
		DefaultUser: cfg.Auth.DefaultUser,
		Logger:      logger,
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	probabilities := reward.DefaultProbabilities()
	if gate, ok := cfg.Rewards.RewardPolicy().(reward.SeededGate); ok {
		probabilities = gate.Probabilities
	} else {
		for cat := range probabilities {
			probabilities[cat] = 1
		}
	}

	router := transport.NewServer(transport.Config{
		Services: transport.Services{
			Spaces:   submissions,
			Rewards:  ledger,
			Activity: activitySvc,
		},
		AuthMiddleware: transport.AuthMiddleware(apiKeys),
		MCP:            mcpHandler,
		Extension: transport.ExtensionConfig{
			DailyRewardCap:      ledger.DailyCap(),
			SpaceMinDuration:    submissions.MinDurationMinutes(),
			RewardProbabilities: probabilities,
		},
		Logger: logger,
	})

	return &Server{
		Ledger:      ledger,
		Submissions: submissions,
		Activity:    activitySvc,
		APIKeys:     apiKeys,
		MCP:         mcpServer,
		Router:      router,
	}
}
