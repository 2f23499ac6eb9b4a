package transport

import (
	"errors"
	"net/http"

	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/rpggio/spacetracker/internal/domain/submission"
)

// MapError converts domain errors to an HTTP status and error code.
func MapError(err error) (int, string) {
	switch {
	case errors.Is(err, errBadJSON),
		errors.Is(err, errBadQuery),
		errors.Is(err, submission.ErrInvalidInput),
		errors.Is(err, reward.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, reward.ErrRewardNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, reward.ErrAlreadyClaimed):
		return http.StatusConflict, CodeAlreadyClaimed
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
