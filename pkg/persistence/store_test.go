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

package persistence_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelguard/sentinelguard/pkg/persistence"
)

type widget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestStoreLoadMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	s := persistence.NewStore[widget](filepath.Join(dir, "widgets.json"))

	v, found, err := s.Load()
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, widget{}, v)
}

func TestStoreSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widgets.json")
	s := persistence.NewStore[widget](path)

	want := widget{Name: "sprocket", Count: 7}
	require.NoError(t, s.Save(want))

	got, found, err := s.Load()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	// No leftover temp files in the directory.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreLoadEmptyFileIsNotFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widgets.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s := persistence.NewStore[widget](path)
	_, found, err := s.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreLoadCorruptFileIsRecoverableError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widgets.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := persistence.NewStore[widget](path)
	_, found, err := s.Load()
	assert.Error(t, err)
	assert.False(t, found)
}

func TestStoreSaveOverwritesPriorSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widgets.json")
	s := persistence.NewStore[widget](path)

	require.NoError(t, s.Save(widget{Name: "a", Count: 1}))
	require.NoError(t, s.Save(widget{Name: "b", Count: 2}))

	got, found, err := s.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, widget{Name: "b", Count: 2}, got)
}
