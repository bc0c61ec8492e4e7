package tree

import (
	"sort"

	"github.com/Veraticus/commerce-admin/internal/model"
)

// ExpandState tracks which nodes of the tree view are expanded. It is UI
// state only and is never persisted. The zero value is ready to use.
type ExpandState struct {
	expanded map[int]struct{}
}

// NewExpandState returns an empty state.
func NewExpandState() *ExpandState {
	return &ExpandState{expanded: make(map[int]struct{})}
}

// Toggle expands a collapsed node or collapses an expanded one.
func (s *ExpandState) Toggle(id int) {
	if s.IsExpanded(id) {
		s.Collapse(id)
		return
	}
	s.Expand(id)
}

// IsExpanded reports whether id is expanded.
func (s *ExpandState) IsExpanded(id int) bool {
	_, ok := s.expanded[id]
	return ok
}

// Expand marks id as expanded.
func (s *ExpandState) Expand(id int) {
	if s.expanded == nil {
		s.expanded = make(map[int]struct{})
	}
	s.expanded[id] = struct{}{}
}

// Collapse marks id as collapsed.
func (s *ExpandState) Collapse(id int) {
	delete(s.expanded, id)
}

// ExpandAll expands every node of the forest that has children.
func (s *ExpandState) ExpandAll(forest []*model.Category) {
	Walk(forest, func(c *model.Category, _ int) bool {
		if c.HasChildren() {
			s.Expand(c.ID)
		}
		return true
	})
}

// CollapseAll collapses every node.
func (s *ExpandState) CollapseAll() {
	s.Reset()
}

// Reset drops all state.
func (s *ExpandState) Reset() {
	s.expanded = make(map[int]struct{})
}

// Retain keeps only the expanded ids that still name a node with children in
// forest and returns how many were dropped.
func (s *ExpandState) Retain(forest []*model.Category) int {
	keep := make(map[int]struct{}, len(s.expanded))
	Walk(forest, func(c *model.Category, _ int) bool {
		if _, ok := s.expanded[c.ID]; ok && c.HasChildren() {
			keep[c.ID] = struct{}{}
		}
		return true
	})
	dropped := len(s.expanded) - len(keep)
	s.expanded = keep
	return dropped
}

// Len returns the number of expanded nodes.
func (s *ExpandState) Len() int {
	return len(s.expanded)
}

// IDs returns the expanded IDs in ascending order.
func (s *ExpandState) IDs() []int {
	ids := make([]int, 0, len(s.expanded))
	for id := range s.expanded {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Visible returns the rows a tree view shows: roots, plus the children of
// every expanded node whose own ancestors are all expanded.
func (s *ExpandState) Visible(forest []*model.Category) []Entry {
	var rows []Entry
	var visit func(nodes []*model.Category, level int)
	visit = func(nodes []*model.Category, level int) {
		for _, c := range nodes {
			if c == nil {
				continue
			}
			rows = append(rows, Entry{Category: c, Level: level})
			if c.HasChildren() && s.IsExpanded(c.ID) {
				visit(c.Children, level+1)
			}
		}
	}
	visit(forest, 0)
	return rows
}
