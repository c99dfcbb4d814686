// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/navtree"
)

// MaxImportSize limits the size of an import document.
const MaxImportSize = 10 << 20

// ErrImportInvalid is returned when an import document fails validation.
var ErrImportInvalid = errors.New("import validation failed")

// LinkReplacer swaps in a whole collection.
type LinkReplacer interface {
	Replace(ctx context.Context, links []model.NavLink) error
}

// Importer loads an export document into a LinkReplacer.
type Importer struct {
	target LinkReplacer
	logger *slog.Logger
}

// NewImporter creates a new Importer instance.
func NewImporter(target LinkReplacer, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		target: target,
		logger: logger,
	}
}

// Import validates data and, unless this is a dry run, replaces the
// collection with it. A persistence failure after the replace is returned
// together with a result describing the applied import.
func (i *Importer) Import(ctx context.Context, data *ExportData, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{DryRun: opts.DryRun}

	if errs := i.Validate(data); len(errs) > 0 {
		result.Errors = errs
		return result, ErrImportInvalid
	}

	links := make([]model.NavLink, 0, len(data.Links))
	for _, l := range data.Links {
		links = append(links, l.toModel())
	}

	if opts.DryRun {
		result.Imported = len(links)
		return result, nil
	}

	if err := i.target.Replace(ctx, links); err != nil {
		if !errors.Is(err, navtree.ErrPersistence) {
			result.AddError("export", "", err.Error())
			return result, err
		}
		result.Imported = len(links)
		i.logger.Warn("navigation links imported but not saved", "count", len(links), "error", err)
		return result, err
	}

	result.Imported = len(links)
	i.logger.Info("navigation links imported", "count", len(links))
	return result, nil
}

// ImportFromReader decodes a document from r and imports it.
func (i *Importer) ImportFromReader(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	data, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return i.Import(ctx, data, opts)
}

// ImportFromFile reads and imports from a file path.
func (i *Importer) ImportFromFile(ctx context.Context, path string, opts ImportOptions) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return i.ImportFromReader(ctx, f, opts)
}

// Decode parses an export document, rejecting unknown fields and
// documents larger than MaxImportSize.
func Decode(r io.Reader) (*ExportData, error) {
	var data ExportData
	decoder := json.NewDecoder(io.LimitReader(r, MaxImportSize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &data, nil
}

// Validate checks the document without making changes: the version is
// supported, every link has an id, name and href, ids are unique, and the
// parent references form no cycles. References to links that are not in
// the document are allowed; such links are shown at the root.
func (i *Importer) Validate(data *ExportData) []ImportError {
	var importErrors []ImportError

	switch {
	case data.Version == "":
		importErrors = append(importErrors, ImportError{Entity: "export", Message: "missing version field"})
	case data.Version != ExportVersion:
		importErrors = append(importErrors, ImportError{
			Entity:  "export",
			ID:      data.Version,
			Message: "unsupported version, expected " + ExportVersion,
		})
	}

	seen := make(map[string]bool, len(data.Links))
	links := make([]model.NavLink, 0, len(data.Links))
	for idx, l := range data.Links {
		id := l.ID
		if id == "" {
			id = strconv.Itoa(idx)
			importErrors = append(importErrors, ImportError{Entity: "link", ID: id, Message: "missing link id"})
		} else if seen[l.ID] {
			importErrors = append(importErrors, ImportError{Entity: "link", ID: id, Message: "duplicate link id"})
		}
		seen[l.ID] = true

		if strings.TrimSpace(l.Name) == "" {
			importErrors = append(importErrors, ImportError{Entity: "link", ID: id, Message: "missing link name"})
		}
		if strings.TrimSpace(l.Href) == "" {
			importErrors = append(importErrors, ImportError{Entity: "link", ID: id, Message: "missing link href"})
		}
		if l.ParentID != "" && l.ParentID == l.ID {
			importErrors = append(importErrors, ImportError{Entity: "link", ID: id, Message: "link is its own parent"})
		}
		links = append(links, l.toModel())
	}

	if len(importErrors) > 0 {
		return importErrors
	}

	for _, l := range links {
		if l.ParentID != "" && navtree.WouldCreateCycle(l.ParentID, l.ID, links) {
			importErrors = append(importErrors, ImportError{Entity: "link", ID: l.ID, Message: "parent chain forms a cycle"})
		}
	}

	return importErrors
}
