package workflow

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"modsuite/internal/fileutil"
)

// ErrRunInProgress indicates another process holds the workspace run lock.
var ErrRunInProgress = errors.New("another recipe run holds the workspace lock")

// AcquireRunLock takes the exclusive run lock at path without blocking.
func AcquireRunLock(path string) (*flock.Flock, error) {
	if err := fileutil.EnsureParentDir(path); err != nil {
		return nil, err
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrRunInProgress, path)
	}
	return lock, nil
}
