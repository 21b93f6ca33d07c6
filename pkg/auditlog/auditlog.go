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

// Package auditlog implements the append-only, disk-mirrored record of
// every state-changing operation in the system: graph mutations, scans,
// plan approvals, and action executions.
package auditlog

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelguard/sentinelguard/pkg/persistence"
)

// Entry is one audit record. Target and Detail are optional: not every
// verb (e.g. a scan) has a single target or extra detail worth recording.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Verb      string    `json:"verb"`
	Actor     string    `json:"actor"`
	Target    string    `json:"target,omitempty"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
}

// Filter narrows List results. Zero-valued fields are not applied.
type Filter struct {
	Verb   string
	Actor  string
	Target string
	Status string
	Since  time.Time
}

// Log is the in-memory, disk-mirrored audit trail. Every Append call
// persists the full entry slice before returning, per the "mirrored on
// every append" contract; callers on a slow disk pay that latency inline
// rather than risk losing an entry to a later batched flush.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	store   *persistence.Store[[]Entry]
}

// New creates a Log backed by path. If a prior snapshot exists at path it
// is loaded immediately; a parse failure is surfaced to the caller so it
// can decide whether to start empty and record a persistence_load_failed
// entry once the log itself is usable.
func New(path string) (*Log, error) {
	store := persistence.NewStore[[]Entry](path)
	entries, _, err := store.Load()
	if err != nil {
		return &Log{store: store}, err
	}
	return &Log{entries: entries, store: store}, nil
}

// Append records a new entry with a fresh uuid and the current time, then
// mirrors the full log to disk. It returns the new entry's id.
func (l *Log) Append(verb, actor, target, status, detail string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Verb:      verb,
		Actor:     actor,
		Target:    target,
		Status:    status,
		Detail:    detail,
	}
	l.entries = append(l.entries, e)

	if l.store != nil {
		if err := l.store.Save(l.entries); err != nil {
			return e.ID, err
		}
	}
	return e.ID, nil
}

// List returns entries matching filter, oldest first. An empty Filter
// returns every entry.
func (l *Log) List(filter Filter) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if filter.Verb != "" && e.Verb != filter.Verb {
			continue
		}
		if filter.Actor != "" && e.Actor != filter.Actor {
			continue
		}
		if filter.Target != "" && e.Target != filter.Target {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if !filter.Since.IsZero() && e.Timestamp.Before(filter.Since) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// Truncate discards every entry and mirrors the now-empty log to disk. It
// is reachable only from the admin CLI subcommand, never from the HTTP
// API: an operator at a terminal, not a remote caller, decides to destroy
// history.
func (l *Log) Truncate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	if l.store != nil {
		return l.store.Save(l.entries)
	}
	return nil
}
