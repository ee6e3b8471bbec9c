package domain

import "time"

// Per-call retry defaults for provider requests.
const (
	DefaultRetryMaxAttempts    = 3
	DefaultRetryInitialDelayMs = 500
	DefaultRetryMaxDelaySec    = 10
	DefaultRetryMultiplier     = 2.0
)

var (
	DefaultRetryInitialDelay = DefaultRetryInitialDelayMs * time.Millisecond
	DefaultRetryMaxDelay     = DefaultRetryMaxDelaySec * time.Second
)
