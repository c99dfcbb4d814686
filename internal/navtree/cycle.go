// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package navtree

import "github.com/olegiv/ocms-nav/internal/model"

// WouldCreateCycle reports whether making candidateParentID the parent of
// nodeID would create a cycle. It walks the ancestor chain of the candidate
// and returns true if nodeID shows up on it.
//
// The walk takes at most len(nodes) steps, so collections that already
// contain a cycle still terminate. A parent ID that is not in nodes ends
// the chain.
func WouldCreateCycle(candidateParentID, nodeID string, nodes []model.NavLink) bool {
	if candidateParentID == "" {
		return false
	}
	if candidateParentID == nodeID {
		return true
	}

	parents := make(map[string]string, len(nodes))
	for _, n := range nodes {
		parents[n.ID] = n.ParentID
	}

	current := candidateParentID
	for steps := 0; steps < len(nodes); steps++ {
		parent, ok := parents[current]
		if !ok || parent == "" {
			return false
		}
		if parent == nodeID {
			return true
		}
		current = parent
	}

	return false
}

// ValidParents returns the links that may become the parent of nodeID:
// every link except the node itself and its descendants, in collection order.
func ValidParents(nodeID string, nodes []model.NavLink) []model.NavLink {
	result := make([]model.NavLink, 0, len(nodes))
	for _, n := range nodes {
		if WouldCreateCycle(n.ID, nodeID, nodes) {
			continue
		}
		result = append(result, n)
	}
	return result
}

// HasChildren reports whether any link in nodes has id as its parent.
func HasChildren(id string, nodes []model.NavLink) bool {
	for _, n := range nodes {
		if n.ParentID == id {
			return true
		}
	}
	return false
}
