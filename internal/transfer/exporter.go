// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/olegiv/ocms-nav/internal/model"
)

// LinkSource provides the collection to export.
type LinkSource interface {
	Links() []model.NavLink
}

// Exporter writes the link collection as a versioned JSON document.
type Exporter struct {
	source LinkSource
	logger *slog.Logger
	now    func() time.Time
}

// NewExporter creates a new Exporter instance.
func NewExporter(source LinkSource, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		source: source,
		logger: logger,
		now:    time.Now,
	}
}

// Export builds the export document.
func (e *Exporter) Export() *ExportData {
	links := e.source.Links()
	data := &ExportData{
		Version:    ExportVersion,
		ExportedAt: e.now().UTC(),
		Links:      make([]ExportLink, 0, len(links)),
	}
	for _, l := range links {
		data.Links = append(data.Links, exportLinkFromModel(l))
	}
	return data
}

// ExportToWriter writes the export as indented JSON to w.
func (e *Exporter) ExportToWriter(w io.Writer) error {
	data := e.Export()

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}

	e.logger.Debug("navigation links exported", "count", len(data.Links))
	return nil
}

// ExportToFile writes the export as JSON to path. The file is written to a
// temporary name first and renamed into place.
func (e *Exporter) ExportToFile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := e.ExportToWriter(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}
