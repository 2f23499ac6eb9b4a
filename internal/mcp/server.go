package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/rpggio/spacetracker/internal/domain/submission"
)

// RewardService defines ledger operations needed by MCP.
type RewardService interface {
	State(ctx context.Context, userID string) (reward.StateView, error)
	Claim(ctx context.Context, userID, rewardID string) (int, error)
	Rewards(ctx context.Context, userID string, opts reward.ListOptions) ([]reward.Reward, error)
}

// SpaceService defines submission queries needed by MCP.
type SpaceService interface {
	Recent(ctx context.Context, userID string, limit int) ([]submission.SpaceTracking, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, userID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Rewards  RewardService
	Spaces   SpaceService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services    Services
	Resolver    UserResolver
	AuthEnabled bool
	// DefaultUser is the user every request runs as when auth is disabled.
	DefaultUser string
	Logger      *slog.Logger
}

// DefaultUser is used when auth is disabled and no user is configured.
const DefaultUser = "local"

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "spacetracker",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	if cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		user := cfg.DefaultUser
		if user == "" {
			user = DefaultUser
		}
		server.AddReceivingMiddleware(noAuthMiddleware(user))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
