// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package navtree

import (
	"sort"

	"github.com/olegiv/ocms-nav/internal/model"
)

// SiblingsOf returns the links whose parent is parentID, sorted by Order.
// Links with equal Order keep their collection order.
func SiblingsOf(parentID string, nodes []model.NavLink) []model.NavLink {
	var siblings []model.NavLink
	for _, n := range nodes {
		if n.ParentID == parentID {
			siblings = append(siblings, n)
		}
	}
	sort.SliceStable(siblings, func(i, j int) bool {
		return siblings[i].Order < siblings[j].Order
	})
	return siblings
}

// NextOrder returns the order for a link appended to the parentID group,
// which is the current size of that group.
func NextOrder(parentID string, nodes []model.NavLink) int {
	count := 0
	for _, n := range nodes {
		if n.ParentID == parentID {
			count++
		}
	}
	return count
}

// MoveWithinSiblings swaps the Order of nodeID with its neighbour in the
// given direction and reports whether anything changed. Moving the first
// sibling up or the last sibling down is a no-op. nodes is modified in place;
// only the two swapped links are touched.
func MoveWithinSiblings(nodeID string, dir model.Direction, nodes []model.NavLink) bool {
	idx := indexOf(nodeID, nodes)
	if idx < 0 {
		return false
	}

	siblings := SiblingsOf(nodes[idx].ParentID, nodes)
	pos := -1
	for i, s := range siblings {
		if s.ID == nodeID {
			pos = i
			break
		}
	}

	var target int
	switch dir {
	case model.DirectionUp:
		target = pos - 1
	case model.DirectionDown:
		target = pos + 1
	default:
		return false
	}
	if target < 0 || target >= len(siblings) {
		return false
	}

	otherIdx := indexOf(siblings[target].ID, nodes)
	nodes[idx].Order, nodes[otherIdx].Order = nodes[otherIdx].Order, nodes[idx].Order
	return true
}

func indexOf(id string, nodes []model.NavLink) int {
	for i, n := range nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
