// Package lock holds the process-wide guard that keeps two runs from
// reconciling the same deployment at once.
package lock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/lite-lake/zonesync/internal/domain"
	"github.com/lite-lake/zonesync/internal/infrastructure/logger"
)

const DefaultRetryDelay = 250 * time.Millisecond

type RunLock struct {
	flock *flock.Flock
}

// DefaultPath is the running executable, so every run of the same
// binary contends for one lock without extra configuration.
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	return exe, nil
}

// Acquire blocks until the exclusive lock on path is held or ctx ends.
func Acquire(ctx context.Context, path string, retryDelay time.Duration) (*RunLock, error) {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		logger.FromContext(ctx).Info("waiting for another run to release the lock", "path", path)
		locked, err = fl.TryLockContext(ctx, retryDelay)
		if err != nil {
			return nil, fmt.Errorf("locking %s: %w: %w", path, domain.ErrLocked, err)
		}
		if !locked {
			return nil, fmt.Errorf("locking %s: %w", path, domain.ErrLocked)
		}
	}

	logger.FromContext(ctx).Debug("run lock acquired", "path", path)
	return &RunLock{flock: fl}, nil
}

func (l *RunLock) Path() string {
	return l.flock.Path()
}

func (l *RunLock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}
