// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package navtree

import (
	"sort"

	"github.com/olegiv/ocms-nav/internal/model"
)

// BuildTree converts the flat collection into nested nodes, each level
// sorted by Order. Links whose parent is missing are shown at the root.
// With visibleOnly set, hidden links and everything under them are skipped.
func BuildTree(links []model.NavLink, visibleOnly bool) []model.NavLinkNode {
	ids := make(map[string]bool, len(links))
	for _, l := range links {
		ids[l.ID] = true
	}

	// Group by parent in collection order so the stable sort keeps ties.
	children := make(map[string][]model.NavLink)
	for _, l := range links {
		parent := l.ParentID
		if parent != "" && !ids[parent] {
			parent = ""
		}
		children[parent] = append(children[parent], l)
	}
	for _, group := range children {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Order < group[j].Order
		})
	}

	visited := make(map[string]bool, len(links))

	var build func(parentID string) []model.NavLinkNode
	build = func(parentID string) []model.NavLinkNode {
		group := children[parentID]
		nodes := make([]model.NavLinkNode, 0, len(group))
		for _, l := range group {
			if visited[l.ID] {
				continue
			}
			visited[l.ID] = true
			if visibleOnly && !l.IsVisible {
				continue
			}
			nodes = append(nodes, model.NavLinkNode{
				NavLink:  l,
				Children: build(l.ID),
			})
		}
		return nodes
	}

	return build("")
}
