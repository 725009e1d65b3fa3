package loop

import "github.com/pkg/errors"

// ErrAlreadyRunning is returned by Run when another Run is in progress.
var ErrAlreadyRunning = errors.New("loop: already running")

// invalidConfigError reports pacing settings Run cannot honor.
type invalidConfigError struct{ msg string }

func (e invalidConfigError) Error() string { return "loop: invalid config: " + e.msg }

// IsInvalidConfig reports whether err comes from Pacing.Validate.
func IsInvalidConfig(err error) bool {
	var ic invalidConfigError
	return errors.As(err, &ic)
}
