/*
 * nagodisk - Reliable and lightweight Nagios plugins written in Go
 * Copyright (C) 2018-2019  Pascal Mathis
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package valuestore

import (
	"fmt"
	"github.com/fabiokung/shm"
	"github.com/pkg/errors"
	"github.com/theckman/go-flock"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// ErrLockTimeout is returned by OpenSharedMemory when the lock of a store could not be obtained in time
var ErrLockTimeout = errors.New("timed out while waiting for store lock")

// SharedMemory is a Memory store which gets loaded from a POSIX shared memory object when being opened and written
// back when being closed. Concurrent processes operating on the same store get serialized by a file lock, as two
// checks updating the same state would otherwise silently lose data.
type SharedMemory struct {
	*Memory

	name      string
	lock      *flock.Flock
	lockDir   string
	timeout   time.Duration
	retryWait time.Duration
}

// SharedMemoryOpt is a type alias for functional options used by OpenSharedMemory()
type SharedMemoryOpt func(*SharedMemory)

// SharedMemoryLockDir is a functional option for OpenSharedMemory(), which sets the directory for lock files
func SharedMemoryLockDir(path string) SharedMemoryOpt {
	return func(s *SharedMemory) {
		s.lockDir = path
	}
}

// SharedMemoryLockTimeout is a functional option for OpenSharedMemory(), which sets how long to wait for the lock
func SharedMemoryLockTimeout(timeout time.Duration) SharedMemoryOpt {
	return func(s *SharedMemory) {
		s.timeout = timeout
	}
}

// OpenSharedMemory locks and loads the store with the given unique name. The name should be chosen wisely, as all
// checks sharing a name also share their state. Close must be called to persist changes and release the lock.
func OpenSharedMemory(name string, options ...SharedMemoryOpt) (*SharedMemory, error) {
	store := &SharedMemory{
		Memory:    NewMemory(),
		name:      sanitizeName(name),
		lockDir:   os.TempDir(),
		timeout:   10 * time.Second,
		retryWait: 100 * time.Millisecond,
	}

	for _, option := range options {
		option(store)
	}

	store.lock = flock.NewFlock(filepath.Join(store.lockDir, fmt.Sprintf(".%s.lock", store.name)))
	if err := store.acquireLock(); err != nil {
		return nil, err
	}

	if err := store.load(); err != nil {
		_ = store.lock.Unlock()
		return nil, errors.Wrapf(err, "unable to load store [%s]", store.name)
	}

	return store, nil
}

// Name returns the sanitized name of the shared memory object
func (s *SharedMemory) Name() string {
	return s.name
}

// Close writes the store back into shared memory and releases the lock. The lock is released even if persisting fails.
// The lock file stays in place, as a waiting process still holds a handle on it and would otherwise lock an orphan.
func (s *SharedMemory) Close() (rerr error) {
	defer func() {
		if err := s.lock.Unlock(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	if err := s.save(); err != nil {
		return errors.Wrapf(err, "unable to store [%s]", s.name)
	}

	return nil
}

func (s *SharedMemory) acquireLock() error {
	err := retryDuring(s.timeout, s.retryWait, func() error {
		isLocked, err := s.lock.TryLock()
		if err != nil {
			return err
		}

		if !isLocked {
			return fmt.Errorf("could not obtain flock for [%s]", s.lock.Path())
		}

		return nil
	})

	if err != nil {
		return errors.Wrap(ErrLockTimeout, err.Error())
	}

	return nil
}

func (s *SharedMemory) load() (rerr error) {
	file, err := shm.Open(s.name, shmReadFlags, shmDefaultMode)
	if err != nil {
		return err
	}

	defer func() {
		if err := file.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	jsonData, err := ioutil.ReadAll(file)
	if err != nil {
		return err
	}

	if len(jsonData) > 0 {
		return s.Memory.UnmarshalJSON(jsonData)
	}

	return nil
}

func (s *SharedMemory) save() (rerr error) {
	jsonData, err := s.Memory.MarshalJSON()
	if err != nil {
		return err
	}

	file, err := shm.Open(s.name, shmWriteFlags, shmDefaultMode)
	if err != nil {
		return err
	}

	defer func() {
		if err := file.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	_, err = file.Write(jsonData)
	return err
}

// sanitizeName escapes the name for use as shm object and lock file name. Slashes are not allowed there, but mount
// points and device paths regularly contain them. The escaping is reversible, so distinct names never share a store.
func sanitizeName(name string) string {
	return url.PathEscape(name)
}

// retryDuring retries a given function until it no longer returns an error or the timeout value was reached. The delay
// parameter specifies the delay between each unsuccessful attempt.
func retryDuring(timeout time.Duration, delay time.Duration, function func() error) (err error) {
	startTime := time.Now()
	attempts := 0
	for {
		attempts++

		err = function()
		if err == nil {
			return
		}

		deltaTime := time.Since(startTime)
		if deltaTime > timeout {
			return fmt.Errorf("aborting retrying after %d attempts (during %s), last error: %s",
				attempts, deltaTime, err.Error())
		}

		time.Sleep(delay)
	}
}
