package reward

import "errors"

var (
	// ErrRewardNotFound indicates the reward doesn't exist or belongs to another user.
	ErrRewardNotFound = errors.New("reward not found")
	// ErrAlreadyClaimed indicates the reward was claimed before.
	ErrAlreadyClaimed = errors.New("reward already claimed")
	// ErrInvalidInput indicates invalid input for reward operations.
	ErrInvalidInput = errors.New("invalid reward input")
)
