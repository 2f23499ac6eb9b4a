package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/domain/reward"
)

// APIError represents an MCP tool error.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps domain errors to MCP error codes. Unknown errors are
// returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, reward.ErrRewardNotFound):
		return &APIError{Code: "REWARD_NOT_FOUND", Message: "reward not found", RecoveryHint: "Call list_rewards for valid IDs"}
	case errors.Is(err, reward.ErrAlreadyClaimed):
		return &APIError{Code: "ALREADY_CLAIMED", Message: "reward already claimed"}
	case errors.Is(err, reward.ErrInvalidInput), errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return err
	}
}
