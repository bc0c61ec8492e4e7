package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Veraticus/commerce-admin/internal/model"
)

const categoriesPath = "/categories"

func categoryPath(id int, suffix ...string) string {
	p := fmt.Sprintf("%s/%d", categoriesPath, id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// ListCategories fetches the category forest filtered by status.
func (c *Client) ListCategories(ctx context.Context, status model.StatusFilter) ([]*model.Category, error) {
	if status == "" {
		status = model.StatusActive
	}

	var forest []*model.Category
	query := url.Values{"status": []string{string(status)}}
	if err := c.get(ctx, categoriesPath, query, &forest); err != nil {
		return nil, err
	}
	return forest, nil
}

// GetCategory fetches a single category.
func (c *Client) GetCategory(ctx context.Context, id int) (*model.Category, error) {
	var cat model.Category
	if err := c.get(ctx, categoryPath(id), nil, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// CreateCategory creates a category and returns it as stored by the backend.
func (c *Client) CreateCategory(ctx context.Context, req model.CreateCategoryRequest) (*model.Category, error) {
	var cat model.Category
	if err := c.sendJSON(ctx, http.MethodPost, categoriesPath, req, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// UpdateCategory applies a partial update.
func (c *Client) UpdateCategory(ctx context.Context, id int, req model.UpdateCategoryRequest) (*model.Category, error) {
	var cat model.Category
	if err := c.sendJSON(ctx, http.MethodPut, categoryPath(id), req, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// SetCategoryStatus activates or deactivates a category.
func (c *Client) SetCategoryStatus(ctx context.Context, id int, active bool) (*model.Category, error) {
	var cat model.Category
	body := model.StatusRequest{IsActive: active}
	if err := c.sendJSON(ctx, http.MethodPatch, categoryPath(id, "status"), body, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id int) error {
	return c.sendJSON(ctx, http.MethodDelete, categoryPath(id), nil, nil)
}

// GetCategoryProducts lists the products of a category with its breadcrumb.
func (c *Client) GetCategoryProducts(ctx context.Context, id int) (*model.CategoryProducts, error) {
	var products model.CategoryProducts
	if err := c.get(ctx, categoryPath(id, "products"), nil, &products); err != nil {
		return nil, err
	}
	return &products, nil
}

// CategoriesHealth checks the categories module of the backend.
func (c *Client) CategoriesHealth(ctx context.Context) (string, error) {
	return c.Health(ctx, categoriesPath+"/health")
}
