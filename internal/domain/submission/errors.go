package submission

import "errors"

// ErrInvalidInput indicates a malformed space submission.
var ErrInvalidInput = errors.New("invalid space submission")
