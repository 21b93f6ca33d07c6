/*
Copyright 2026 The Sentinelguard Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package persistence implements the atomic write-temp-then-rename JSON
// snapshot store shared by the graph store, audit log, and response
// planner, so every owning component gets the same crash-safety guarantee
// without duplicating the file-handling code.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists a single value of type T to a JSON file, atomically.
type Store[T any] struct {
	path string
}

// NewStore returns a Store backed by path. The containing directory is not
// created; callers are expected to have already established the data
// directory at startup.
func NewStore[T any](path string) *Store[T] {
	return &Store[T]{path: path}
}

// Load reads the persisted value. If the file does not exist, it returns
// the zero value, found=false, and no error: that is the normal first-run
// state, not a failure. If the file exists but is empty, it is treated the
// same way. A parse failure on a non-empty file is returned as an error;
// cmd/sentinelguard treats any such error as a startup failure and exits
// with status 1. It does not start from an empty state and records no
// persistence_load_failed audit entry.
func (s *Store[T]) Load() (T, bool, error) {
	var zero T
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("persistence: reading %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return zero, false, nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, false, fmt.Errorf("persistence: parsing %s: %w", s.path, err)
	}
	return v, true, nil
}

// Save writes v to a temp file in the same directory as the target, syncs
// it, and renames it into place, so a reader never observes a partially
// written file and a crash mid-write never corrupts the prior snapshot.
func (s *Store[T]) Save(v T) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("persistence: creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: encoding %s: %w", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: syncing %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persistence: closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("persistence: renaming %s to %s: %w", tmpPath, s.path, err)
	}
	renamed = true
	return nil
}
