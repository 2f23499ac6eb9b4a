package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rpggio/spacetracker/internal/agent"
	"github.com/spf13/cobra"
)

type rewardClaimer interface {
	ClaimReward(ctx context.Context, rewardID string) (int, error)
}

var claimCmd = &cobra.Command{
	Use:   "claim <reward-id>",
	Short: "Claim an unclaimed space reward on the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Agent.Token == "" {
			return fmt.Errorf("agent.token is required to claim rewards")
		}
		client := agent.NewBackendClient(cfg.Agent.BackendURL, cfg.Agent.Token, nil)
		return runClaim(cmd.Context(), cmd.OutOrStdout(), client, args[0])
	},
}

func runClaim(ctx context.Context, w io.Writer, claimer rewardClaimer, rewardID string) error {
	amount, err := claimer.ClaimReward(ctx, rewardID)
	if err != nil {
		var apiErr *agent.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Status {
			case http.StatusNotFound:
				return fmt.Errorf("reward %s not found", rewardID)
			case http.StatusConflict:
				return fmt.Errorf("reward %s was already claimed", rewardID)
			}
		}
		return fmt.Errorf("claiming reward %s: %w", rewardID, err)
	}
	fmt.Fprintf(w, "%s %s\n", amountStyle.Render(fmt.Sprintf("+%d", amount)), dimStyle.Render("claimed "+rewardID))
	return nil
}
