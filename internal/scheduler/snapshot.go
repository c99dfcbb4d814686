// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/olegiv/ocms-nav/internal/transfer"
	"github.com/olegiv/ocms-nav/internal/util"
)

// ErrSourceNotReady is returned by Snapshot while the ready check fails.
var ErrSourceNotReady = errors.New("snapshot source not ready")

// Snapshotter writes export documents into a directory and keeps only the
// most recent ones.
type Snapshotter struct {
	exporter *transfer.Exporter
	dir      string
	prefix   string
	keep     int
	ready    func() bool
	now      func() time.Time
}

// NewSnapshotter creates a snapshotter. Files are named
// <slug(name)>-<UTC timestamp>.json. keep <= 0 keeps every file.
func NewSnapshotter(exporter *transfer.Exporter, dir, name string, keep int) *Snapshotter {
	prefix := util.Slugify(name)
	if !util.IsValidSlug(prefix) {
		prefix = "navlinks"
	}
	return &Snapshotter{
		exporter: exporter,
		dir:      dir,
		prefix:   prefix,
		keep:     keep,
		now:      time.Now,
	}
}

// SetReadyCheck makes Snapshot skip writing, and pruning, while ready
// returns false.
func (s *Snapshotter) SetReadyCheck(ready func() bool) {
	s.ready = ready
}

// Snapshot writes one snapshot and prunes old ones. It returns the path written.
func (s *Snapshotter) Snapshot() (string, error) {
	if s.ready != nil && !s.ready() {
		return "", ErrSourceNotReady
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("creating snapshot dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s.json", s.prefix, s.now().UTC().Format("20060102T150405.000Z"))
	path, err := util.SafeJoinPath(s.dir, name)
	if err != nil {
		return "", err
	}

	if err := s.exporter.ExportToFile(path); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}

	if err := s.prune(); err != nil {
		return path, fmt.Errorf("pruning snapshots: %w", err)
	}
	return path, nil
}

// List returns snapshot file names, oldest first.
func (s *Snapshotter) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(n, s.prefix+"-") && strings.HasSuffix(n, ".json") {
			names = append(names, n)
		}
	}
	// Timestamps sort lexically.
	sort.Strings(names)
	return names, nil
}

func (s *Snapshotter) prune() error {
	if s.keep <= 0 {
		return nil
	}
	names, err := s.List()
	if err != nil {
		return err
	}
	for len(names) > s.keep {
		if err := os.Remove(filepath.Join(s.dir, names[0])); err != nil {
			return err
		}
		names = names[1:]
	}
	return nil
}
