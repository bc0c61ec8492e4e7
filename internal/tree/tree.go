// Package tree implements the in-memory category forest operations used to
// build parent selectors and to drive the expandable tree view.
package tree

import (
	"log/slog"
	"strings"

	"github.com/Veraticus/commerce-admin/internal/model"
)

// Entry is one row of a flattened forest. Level is the traversal depth, not
// the level stored on the category.
type Entry struct {
	Category *model.Category
	Level    int
}

// Walk visits the forest depth-first in pre-order. Children are visited in
// their stored order. Returning false from fn stops the walk.
func Walk(forest []*model.Category, fn func(c *model.Category, level int) bool) {
	walk(forest, 0, fn)
}

func walk(nodes []*model.Category, level int, fn func(*model.Category, int) bool) bool {
	for _, c := range nodes {
		if c == nil {
			continue
		}
		if !fn(c, level) {
			return false
		}
		if !walk(c.Children, level+1, fn) {
			return false
		}
	}
	return true
}

// Flatten returns every node of the forest once, in pre-order, annotated with
// its depth from a root.
func Flatten(forest []*model.Category) []Entry {
	entries := make([]Entry, 0, Count(forest))
	Walk(forest, func(c *model.Category, level int) bool {
		entries = append(entries, Entry{Category: c, Level: level})
		return true
	})
	return entries
}

// IsDescendant reports whether node sits anywhere below ancestor. Nodes are
// compared by ID; ancestor itself never matches.
func IsDescendant(ancestor, node *model.Category) bool {
	if ancestor == nil || node == nil || len(ancestor.Children) == 0 {
		return false
	}
	for _, child := range ancestor.Children {
		if child == nil {
			continue
		}
		if child.ID == node.ID || IsDescendant(child, node) {
			return true
		}
	}
	return false
}

// AvailableParents returns the flattened forest minus the category being
// edited and its descendants. With a nil editing category it equals Flatten.
func AvailableParents(forest []*model.Category, editing *model.Category) []Entry {
	entries := Flatten(forest)
	if editing == nil {
		return entries
	}

	// The caller may hold a detached copy; use the forest's own node so the
	// descendant check sees the current children.
	subject := editing
	if found := Find(forest, editing.ID); found != nil {
		subject = found
	}

	available := entries[:0]
	for _, e := range entries {
		if e.Category.ID == subject.ID {
			continue
		}
		if IsDescendant(subject, e.Category) {
			continue
		}
		available = append(available, e)
	}
	return available
}

// Find returns the node with the given ID, or nil.
func Find(forest []*model.Category, id int) *model.Category {
	var found *model.Category
	Walk(forest, func(c *model.Category, _ int) bool {
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// Path returns the chain of references from a root down to the node with the
// given ID, inclusive. It returns nil when the ID is not in the forest.
func Path(forest []*model.Category, id int) []model.CategoryRef {
	var trail []model.CategoryRef
	var search func(nodes []*model.Category, level int) bool
	search = func(nodes []*model.Category, level int) bool {
		for _, c := range nodes {
			if c == nil {
				continue
			}
			trail = append(trail, model.CategoryRef{ID: c.ID, Name: c.Name, Level: level})
			if c.ID == id || search(c.Children, level+1) {
				return true
			}
			trail = trail[:len(trail)-1]
		}
		return false
	}
	if !search(forest, 0) {
		return nil
	}
	return trail
}

// Count returns the number of nodes in the forest.
func Count(forest []*model.Category) int {
	n := 0
	Walk(forest, func(*model.Category, int) bool {
		n++
		return true
	})
	return n
}

// Indent returns the prefix used to show hierarchy in a parent selector.
func Indent(level int) string {
	if level < 0 {
		level = 0
	}
	return strings.Repeat("—", level) + " "
}

// LevelMismatch records a node whose stored level disagrees with its depth.
type LevelMismatch struct {
	Name     string
	ID       int
	Stored   int
	Computed int
}

// AuditLevels compares every stored level with the true depth.
func AuditLevels(forest []*model.Category) []LevelMismatch {
	var mismatches []LevelMismatch
	Walk(forest, func(c *model.Category, level int) bool {
		if c.Level != level {
			mismatches = append(mismatches, LevelMismatch{
				ID:       c.ID,
				Name:     c.Name,
				Stored:   c.Level,
				Computed: level,
			})
		}
		return true
	})
	return mismatches
}

// Normalize overwrites stored levels with the computed depth and returns the
// number of nodes that were corrected. Each correction is logged.
func Normalize(forest []*model.Category) int {
	mismatches := AuditLevels(forest)
	for _, m := range mismatches {
		slog.Warn("category level disagrees with tree depth, using depth",
			"category_id", m.ID,
			"name", m.Name,
			"stored_level", m.Stored,
			"depth", m.Computed)
	}
	Walk(forest, func(c *model.Category, level int) bool {
		c.Level = level
		return true
	})
	return len(mismatches)
}
