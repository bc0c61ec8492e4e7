// Package admin holds the state behind the admin screens: the category tree
// page, the category editor and the settings page. Controllers talk to the
// backend through the service interfaces and report outcomes to a Notifier,
// so the same logic drives both the CLI and the tree browser.
package admin

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/commerce-admin/internal/api"
	"github.com/Veraticus/commerce-admin/internal/common"
	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/Veraticus/commerce-admin/internal/service"
	"github.com/Veraticus/commerce-admin/internal/tree"
)

// CategoryView is the category tree page. It is safe for concurrent use.
type CategoryView struct {
	svc     service.CategoryService
	notify  service.Notifier
	confirm service.Confirmer
	expand  *tree.ExpandState
	filter  model.StatusFilter
	forest  []*model.Category
	mu      sync.RWMutex
	loading bool
}

// NewCategoryView creates a view filtered to active categories.
func NewCategoryView(svc service.CategoryService, notify service.Notifier, confirm service.Confirmer) *CategoryView {
	return &CategoryView{
		svc:     svc,
		notify:  notify,
		confirm: confirm,
		expand:  tree.NewExpandState(),
		filter:  model.StatusActive,
	}
}

// Load fetches the forest for the current filter. On success the forest is
// replaced and the expand state reset; on failure the previous forest stays.
func (v *CategoryView) Load(ctx context.Context) error {
	return v.load(ctx, false)
}

// reload refetches after a change made from this view. Expanded nodes stay
// expanded as long as they still exist and have children.
func (v *CategoryView) reload(ctx context.Context) error {
	return v.load(ctx, true)
}

func (v *CategoryView) load(ctx context.Context, keepExpanded bool) error {
	v.mu.Lock()
	v.loading = true
	filter := v.filter
	v.mu.Unlock()

	forest, err := v.svc.ListCategories(ctx, filter)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false

	if err != nil {
		common.LogError(err, "failed to load categories", common.Fields{"filter": filter})
		v.notify.Error("", "Failed to load categories")
		return fmt.Errorf("failed to load categories: %w", err)
	}

	if n := tree.Normalize(forest); n > 0 {
		common.LogDebug("normalized category levels", common.Fields{"count": n})
	}
	v.forest = forest
	if keepExpanded {
		v.expand.Retain(forest)
	} else {
		v.expand.Reset()
	}
	return nil
}

// SetFilter changes the status filter and reloads.
func (v *CategoryView) SetFilter(ctx context.Context, filter model.StatusFilter) error {
	v.mu.Lock()
	v.filter = filter
	v.mu.Unlock()
	return v.Load(ctx)
}

// Filter returns the current status filter.
func (v *CategoryView) Filter() model.StatusFilter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

// Loading reports whether a fetch is in flight.
func (v *CategoryView) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

// Forest returns the current forest. The nodes are shared and must not be
// modified; every load replaces them wholesale.
func (v *CategoryView) Forest() []*model.Category {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*model.Category, len(v.forest))
	copy(out, v.forest)
	return out
}

// Entries returns the whole forest flattened.
func (v *CategoryView) Entries() []tree.Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return tree.Flatten(v.forest)
}

// Visible returns the rows shown with the current expand state.
func (v *CategoryView) Visible() []tree.Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.expand.Visible(v.forest)
}

// Find returns the category with id from the loaded forest.
func (v *CategoryView) Find(id int) *model.Category {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return tree.Find(v.forest, id)
}

// Toggle flips the expanded state of id.
func (v *CategoryView) Toggle(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expand.Toggle(id)
}

// IsExpanded reports whether id is expanded.
func (v *CategoryView) IsExpanded(id int) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.expand.IsExpanded(id)
}

// ExpandAll expands every node with children.
func (v *CategoryView) ExpandAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expand.ExpandAll(v.forest)
}

// CollapseAll collapses every node.
func (v *CategoryView) CollapseAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expand.CollapseAll()
}

func (v *CategoryView) lookup(id int) (*model.Category, error) {
	c := v.Find(id)
	if c == nil {
		return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	return c, nil
}

// ToggleStatus asks for confirmation and flips the category's active flag.
// It reports whether the change was applied. After a change the filter
// switches to "all" so the category stays visible.
func (v *CategoryView) ToggleStatus(ctx context.Context, id int) (bool, error) {
	c, err := v.lookup(id)
	if err != nil {
		return false, err
	}

	activate := !c.IsActive
	verb, past := "deactivate", "deactivated"
	if activate {
		verb, past = "activate", "activated"
	}

	ok, err := v.confirm.Confirm(ctx,
		fmt.Sprintf("%s category", capitalize(verb)),
		fmt.Sprintf("Are you sure you want to %s the category %q?", verb, c.Name))
	if err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return false, nil
	}

	if _, err := v.svc.SetCategoryStatus(ctx, id, activate); err != nil {
		common.LogError(err, "failed to change category status", common.Fields{"id": id, "active": activate})
		v.notify.Error("", fmt.Sprintf("Failed to %s the category", verb))
		return false, fmt.Errorf("failed to %s category %d: %w", verb, id, err)
	}

	v.notify.Success("", fmt.Sprintf("Category %s", past))

	v.mu.Lock()
	v.filter = model.StatusAll
	v.mu.Unlock()

	if err := v.reload(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Delete asks for confirmation and deletes the category. It reports whether
// the category was deleted. The backend refuses to delete categories with
// active subcategories; its message is shown as is.
func (v *CategoryView) Delete(ctx context.Context, id int) (bool, error) {
	c, err := v.lookup(id)
	if err != nil {
		return false, err
	}

	ok, err := v.confirm.Confirm(ctx,
		"Delete category",
		fmt.Sprintf("Are you sure you want to delete the category %q?\nThis action cannot be undone.", c.Name))
	if err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := v.svc.DeleteCategory(ctx, id); err != nil {
		common.LogError(err, "failed to delete category", common.Fields{"id": id})
		v.notify.Error("", deleteMessage(err))
		return false, fmt.Errorf("failed to delete category %d: %w", id, err)
	}

	v.notify.Success("", "Category deleted")
	if err := v.reload(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// deleteMessage shows the backend's own message, as delete has no form to
// attach field details to.
func deleteMessage(err error) string {
	if msg, ok := api.BackendMessage(err); ok {
		return msg
	}
	return "Failed to delete the category"
}

// Products fetches the products of a category.
func (v *CategoryView) Products(ctx context.Context, id int) (*model.CategoryProducts, error) {
	products, err := v.svc.GetCategoryProducts(ctx, id)
	if err != nil {
		v.notify.Error("", "Failed to load products")
		return nil, fmt.Errorf("failed to load products of category %d: %w", id, err)
	}
	return products, nil
}
