package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/commerce-admin/internal/api"
	"github.com/Veraticus/commerce-admin/internal/common"
	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/Veraticus/commerce-admin/internal/service"
	"github.com/Veraticus/commerce-admin/internal/tree"
	"github.com/Veraticus/commerce-admin/internal/validation"
)

// EditorMode selects whether the editor creates or updates a category.
type EditorMode int

// Editor modes.
const (
	ModeCreate EditorMode = iota
	ModeEdit
)

func (m EditorMode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// CategoryEditor backs the create/edit category form.
type CategoryEditor struct {
	svc       service.CategoryService
	notify    service.Notifier
	validator *validation.Validator
	// category is the edit target, or the preselected parent when creating.
	category *model.Category
	parents  []tree.Entry
	mode     EditorMode
}

// NewCreateEditor opens the editor for a new category. parent, when set, is
// preselected; any category in the forest may be chosen.
func NewCreateEditor(svc service.CategoryService, notify service.Notifier, v *validation.Validator,
	forest []*model.Category, parent *model.Category,
) *CategoryEditor {
	return &CategoryEditor{
		svc:       svc,
		notify:    notify,
		validator: v,
		category:  parent,
		parents:   tree.AvailableParents(forest, nil),
		mode:      ModeCreate,
	}
}

// NewEditEditor opens the editor for an existing category. The category and
// its descendants are excluded from the parent choices.
func NewEditEditor(svc service.CategoryService, notify service.Notifier, v *validation.Validator,
	forest []*model.Category, category *model.Category,
) *CategoryEditor {
	return &CategoryEditor{
		svc:       svc,
		notify:    notify,
		validator: v,
		category:  category,
		parents:   tree.AvailableParents(forest, category),
		mode:      ModeEdit,
	}
}

// Mode returns the editor mode.
func (e *CategoryEditor) Mode() EditorMode {
	return e.mode
}

// Title returns the form heading.
func (e *CategoryEditor) Title() string {
	switch {
	case e.mode == ModeEdit && e.category != nil:
		return fmt.Sprintf("Edit %q", e.category.Name)
	case e.category != nil:
		return fmt.Sprintf("New subcategory of %q", e.category.Name)
	default:
		return "New category"
	}
}

// AvailableParents returns the parent choices in display order.
func (e *CategoryEditor) AvailableParents() []tree.Entry {
	out := make([]tree.Entry, len(e.parents))
	copy(out, e.parents)
	return out
}

// ParentLabel renders a parent choice with its depth indent.
func ParentLabel(entry tree.Entry) string {
	return tree.Indent(entry.Level) + entry.Category.Name
}

// Defaults returns the initial form values.
func (e *CategoryEditor) Defaults() validation.CategoryForm {
	form := validation.CategoryForm{IsActive: true}
	if e.category == nil {
		return form
	}
	if e.mode == ModeCreate {
		form.ParentID = model.IntPtr(e.category.ID)
		return form
	}

	form.Name = e.category.Name
	form.Description = e.category.Description
	form.IsActive = e.category.IsActive
	if e.category.ParentID != nil {
		form.ParentID = model.IntPtr(*e.category.ParentID)
	}
	return form
}

func (e *CategoryEditor) allowsParent(id int) bool {
	for _, p := range e.parents {
		if p.Category.ID == id {
			return true
		}
	}
	return false
}

// Submit validates the form and creates or updates the category. A parent id
// of zero means no parent.
func (e *CategoryEditor) Submit(ctx context.Context, form validation.CategoryForm) (*model.Category, error) {
	if form.ParentID != nil && *form.ParentID == 0 {
		form.ParentID = nil
	}

	if err := e.validator.Category(&form); err != nil {
		e.notify.Error("", "Please fix the errors in the form")
		return nil, err
	}

	if form.ParentID != nil && !e.allowsParent(*form.ParentID) {
		e.notify.Error("", "The selected parent is not available for this category")
		return nil, fmt.Errorf("parent %d: %w", *form.ParentID, common.ErrInvalidParent)
	}

	if e.mode == ModeEdit {
		return e.update(ctx, form)
	}
	return e.create(ctx, form)
}

func (e *CategoryEditor) create(ctx context.Context, form validation.CategoryForm) (*model.Category, error) {
	created, err := e.svc.CreateCategory(ctx, model.CreateCategoryRequest{
		Name:        form.Name,
		Description: form.Description,
		ParentID:    form.ParentID,
		IsActive:    model.BoolPtr(form.IsActive),
	})
	if err != nil {
		common.LogError(err, "failed to create category", common.Fields{"name": form.Name})
		e.notify.Error("", api.UserMessage(err, "Failed to create the category"))
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	e.notify.Success("", "Category created")
	return created, nil
}

func (e *CategoryEditor) update(ctx context.Context, form validation.CategoryForm) (*model.Category, error) {
	if e.category == nil {
		return nil, errors.New("no category to edit")
	}

	updated, err := e.svc.UpdateCategory(ctx, e.category.ID, model.UpdateCategoryRequest{
		Name:        model.StringPtr(form.Name),
		Description: model.StringPtr(form.Description),
		ParentID:    form.ParentID,
		IsActive:    model.BoolPtr(form.IsActive),
	})
	if err != nil {
		common.LogError(err, "failed to update category", common.Fields{"id": e.category.ID})
		e.notify.Error("", api.UserMessage(err, "Failed to update the category"))
		return nil, fmt.Errorf("failed to update category %d: %w", e.category.ID, err)
	}

	e.notify.Success("", "Category updated")
	return updated, nil
}
