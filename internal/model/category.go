package model

import (
	"fmt"
	"time"
)

// StatusFilter selects which categories the backend returns.
type StatusFilter string

const (
	// StatusActive returns only active categories.
	StatusActive StatusFilter = "active"
	// StatusInactive returns only inactive categories.
	StatusInactive StatusFilter = "inactive"
	// StatusAll returns every category regardless of status.
	StatusAll StatusFilter = "all"
)

// ParseStatusFilter converts user input into a StatusFilter.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch StatusFilter(s) {
	case StatusActive, StatusInactive, StatusAll:
		return StatusFilter(s), nil
	case "":
		return StatusActive, nil
	default:
		return "", fmt.Errorf("invalid status filter %q (want active, inactive or all)", s)
	}
}

// CategoryRef is the short form of a category used for parents and breadcrumbs.
type CategoryRef struct {
	Name  string `json:"name"`
	ID    int    `json:"id"`
	Level int    `json:"level"`
}

// Category is a node of the product category forest.
// Children are owned by their parent; a root has a nil ParentID.
type Category struct {
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	ParentID     *int          `json:"parentId,omitempty"`
	ProductCount *int          `json:"productCount,omitempty"`
	Parent       *CategoryRef  `json:"parent,omitempty"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Children     []*Category   `json:"children,omitempty"`
	Path         []CategoryRef `json:"path,omitempty"`
	ID           int           `json:"id"`
	Level        int           `json:"level"`
	IsActive     bool          `json:"isActive"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// HasChildren reports whether the category has at least one child.
func (c *Category) HasChildren() bool {
	return len(c.Children) > 0
}

// Ref returns the short reference form of the category.
func (c *Category) Ref() CategoryRef {
	return CategoryRef{ID: c.ID, Name: c.Name, Level: c.Level}
}

// StatusLabel returns a human readable status.
func (c *Category) StatusLabel() string {
	if c.IsActive {
		return "active"
	}
	return "inactive"
}

// CreateCategoryRequest is the body of POST /categories.
type CreateCategoryRequest struct {
	ParentID    *int   `json:"parentId"`
	IsActive    *bool  `json:"isActive,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateCategoryRequest is the body of PUT /categories/{id}. Nil fields are
// left untouched by the backend, except ParentID which is always sent so a
// category can be moved back to the root.
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ParentID    *int    `json:"parentId"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// StatusRequest is the body of PATCH /categories/{id}/status.
type StatusRequest struct {
	IsActive bool `json:"isActive"`
}

// CategoryProduct is a product listed under a category.
type CategoryProduct struct {
	Name  string  `json:"name"`
	Code  string  `json:"code"`
	ID    int     `json:"id"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// CategoryProducts is the payload of GET /categories/{id}/products.
type CategoryProducts struct {
	Category      Category          `json:"category"`
	Products      []CategoryProduct `json:"products"`
	Breadcrumb    []CategoryRef     `json:"breadcrumb"`
	TotalProducts int               `json:"totalProducts"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }
