package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = "offersearch.lock"

var ErrStateLocked = errors.New("another engine process holds the state lock")

// acquireStateLock makes sure a single process merges into the accumulated set.
func acquireStateLock(dataDir string) (*flock.Flock, error) {
	fl := flock.New(filepath.Join(dataDir, lockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrStateLocked, fl.Path())
	}
	return fl, nil
}
