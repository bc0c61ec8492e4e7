// Package categories provides test infrastructure for building category
// forests. It offers a fluent API so tests describe tree shapes instead of
// wiring parent IDs, levels and children slices by hand.
//
// Example usage:
//
//	forest := categories.NewBuilder(t).
//		WithRoot(categories.N(1, "A",
//			categories.N(2, "B",
//				categories.N(3, "C")))).
//		Build()
package categories

import (
	"testing"
	"time"

	"github.com/Veraticus/commerce-admin/internal/model"
)

// Builder provides a fluent interface for constructing test forests.
type Builder interface {
	// WithRoot appends a root node (and its subtree) to the forest.
	WithRoot(node Node) Builder

	// WithRoots appends several roots in order.
	WithRoots(nodes ...Node) Builder

	// WithFixture appends the roots of a predefined fixture.
	WithFixture(fixture Fixture) Builder

	// Build materialises the forest with parent IDs and levels filled in.
	Build() Forest
}

// Node describes one category and its subtree.
type Node struct {
	Name     string
	Children []Node
	ID       int
	Inactive bool
}

// N creates a node with the given children.
func N(id int, name string, children ...Node) Node {
	return Node{ID: id, Name: name, Children: children}
}

// Disabled returns a copy of the node marked inactive.
func (n Node) Disabled() Node {
	n.Inactive = true
	return n
}

// Forest is a built category forest.
type Forest []*model.Category

// Find returns the node with the given ID, or nil.
func (f Forest) Find(id int) *model.Category {
	var search func(nodes []*model.Category) *model.Category
	search = func(nodes []*model.Category) *model.Category {
		for _, c := range nodes {
			if c.ID == id {
				return c
			}
			if found := search(c.Children); found != nil {
				return found
			}
		}
		return nil
	}
	return search(f)
}

// MustFind returns the node with the given ID or fails the test.
func (f Forest) MustFind(t *testing.T, id int) *model.Category {
	t.Helper()
	c := f.Find(id)
	if c == nil {
		t.Fatalf("category %d not found in test forest", id)
	}
	return c
}

// IDs returns every ID in pre-order.
func (f Forest) IDs() []int {
	var ids []int
	var visit func(nodes []*model.Category)
	visit = func(nodes []*model.Category) {
		for _, c := range nodes {
			ids = append(ids, c.ID)
			visit(c.Children)
		}
	}
	visit(f)
	return ids
}

type forestBuilder struct {
	t     *testing.T
	roots []Node
}

// NewBuilder creates a new forest builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &forestBuilder{t: t}
}

func (b *forestBuilder) WithRoot(node Node) Builder {
	b.roots = append(b.roots, node)
	return b
}

func (b *forestBuilder) WithRoots(nodes ...Node) Builder {
	b.roots = append(b.roots, nodes...)
	return b
}

func (b *forestBuilder) WithFixture(fixture Fixture) Builder {
	return b.WithRoots(fixture.Roots()...)
}

func (b *forestBuilder) Build() Forest {
	b.t.Helper()

	seen := make(map[int]struct{})
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var build func(n Node, parent *model.Category, level int) *model.Category
	build = func(n Node, parent *model.Category, level int) *model.Category {
		if _, dup := seen[n.ID]; dup {
			b.t.Fatalf("duplicate category id %d in test forest", n.ID)
		}
		seen[n.ID] = struct{}{}

		c := &model.Category{
			ID:        n.ID,
			Name:      n.Name,
			Level:     level,
			IsActive:  !n.Inactive,
			CreatedAt: created,
			UpdatedAt: created,
		}
		if parent != nil {
			c.ParentID = model.IntPtr(parent.ID)
			ref := parent.Ref()
			c.Parent = &ref
		}
		for _, child := range n.Children {
			c.Children = append(c.Children, build(child, c, level+1))
		}
		return c
	}

	forest := make(Forest, 0, len(b.roots))
	for _, root := range b.roots {
		forest = append(forest, build(root, nil, 0))
	}
	return forest
}
