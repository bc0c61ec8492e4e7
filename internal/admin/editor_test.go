package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/Veraticus/commerce-admin/internal/admin"
	"github.com/Veraticus/commerce-admin/internal/common"
	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/Veraticus/commerce-admin/internal/testutil/fakeapi"
	"github.com/Veraticus/commerce-admin/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedForest(t *testing.T, h *harness) []*model.Category {
	t.Helper()
	require.NoError(t, h.view.SetFilter(context.Background(), model.StatusAll))
	return h.view.Forest()
}

func TestEditor_Titles(t *testing.T) {
	h := storeHarness(t)
	forest := loadedForest(t, h)
	v := validation.New()
	hogar := h.view.Find(20)

	assert.Equal(t, "New category", admin.NewCreateEditor(h.client, h.notify, v, forest, nil).Title())
	assert.Equal(t, `New subcategory of "Hogar"`, admin.NewCreateEditor(h.client, h.notify, v, forest, hogar).Title())
	assert.Equal(t, `Edit "Hogar"`, admin.NewEditEditor(h.client, h.notify, v, forest, hogar).Title())
}

func TestEditor_AvailableParents(t *testing.T) {
	h := storeHarness(t)
	forest := loadedForest(t, h)
	v := validation.New()

	create := admin.NewCreateEditor(h.client, h.notify, v, forest, nil)
	assert.Len(t, create.AvailableParents(), 11)

	edit := admin.NewEditEditor(h.client, h.notify, v, forest, h.view.Find(14))
	assert.Equal(t, []int{10, 11, 12, 13, 20, 21, 22, 30}, ids(edit.AvailableParents()))

	labels := make([]string, 0, 3)
	for _, e := range edit.AvailableParents()[:3] {
		labels = append(labels, admin.ParentLabel(e))
	}
	assert.Equal(t, []string{" Electrónica", "— Computadoras", "—— Laptops"}, labels)
}

func TestEditor_Defaults(t *testing.T) {
	h := storeHarness(t)
	forest := loadedForest(t, h)
	v := validation.New()

	blank := admin.NewCreateEditor(h.client, h.notify, v, forest, nil).Defaults()
	assert.Equal(t, validation.CategoryForm{IsActive: true}, blank)

	sub := admin.NewCreateEditor(h.client, h.notify, v, forest, h.view.Find(20)).Defaults()
	require.NotNil(t, sub.ParentID)
	assert.Equal(t, 20, *sub.ParentID)
	assert.Empty(t, sub.Name)

	edit := admin.NewEditEditor(h.client, h.notify, v, forest, h.view.Find(22)).Defaults()
	assert.Equal(t, "Jardín", edit.Name)
	assert.False(t, edit.IsActive)
	require.NotNil(t, edit.ParentID)
	assert.Equal(t, 20, *edit.ParentID)
}

func TestEditor_Create(t *testing.T) {
	h := storeHarness(t)
	forest := loadedForest(t, h)
	editor := admin.NewCreateEditor(h.client, h.notify, validation.New(), forest, h.view.Find(20))

	form := editor.Defaults()
	form.Name = "  <i>Baño</i> "
	form.Description = "Accesorios de baño"

	created, err := editor.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "Baño", created.Name)
	require.NotNil(t, created.ParentID)
	assert.Equal(t, 20, *created.ParentID)
	assert.Equal(t, 1, created.Level)
	assert.Equal(t, []string{"Category created"}, h.notify.Messages("success"))
}

func TestEditor_CreateRootSendsNullParent(t *testing.T) {
	h := storeHarness(t)
	forest := loadedForest(t, h)
	editor := admin.NewCreateEditor(h.client, h.notify, validation.New(), forest, nil)

	created, err := editor.Submit(context.Background(), validation.CategoryForm{
		Name:     "Ropa",
		ParentID: model.IntPtr(0),
		IsActive: true,
	})
	require.NoError(t, err)
	assert.Nil(t, created.ParentID)

	reqs := h.srv.Requests()
	var body map[string]any
	require.NoError(t, json.Unmarshal(reqs[len(reqs)-1].Body, &body))
	value, present := body["parentId"]
	assert.True(t, present)
	assert.Nil(t, value)
}

func TestEditor_ValidationStopsRequest(t *testing.T) {
	h := storeHarness(t)
	forest := loadedForest(t, h)
	editor := admin.NewCreateEditor(h.client, h.notify, validation.New(), forest, nil)

	tests := []struct {
		name  string
		form  validation.CategoryForm
		field string
	}{
		{name: "short name", form: validation.CategoryForm{Name: "X"}, field: "name"},
		{name: "long name", form: validation.CategoryForm{Name: strings.Repeat("x", 101)}, field: "name"},
		{name: "long description", form: validation.CategoryForm{Name: "Ok", Description: strings.Repeat("x", 501)}, field: "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := editor.Submit(context.Background(), tt.form)
			require.ErrorIs(t, err, common.ErrValidation)
			assert.NotEmpty(t, admin.ErrorMessages(err)[tt.field])
		})
	}
	assert.Equal(t, 0, h.srv.CountRequests(http.MethodPost, "/categories"))
}

func TestEditor_RejectsUnavailableParent(t *testing.T) {
	h := storeHarness(t)
	forest := loadedForest(t, h)
	telefonia := h.view.Find(14)
	editor := admin.NewEditEditor(h.client, h.notify, validation.New(), forest, telefonia)

	for _, parent := range []int{14, 15, 16, 999} {
		form := editor.Defaults()
		form.ParentID = model.IntPtr(parent)
		_, err := editor.Submit(context.Background(), form)
		assert.ErrorIs(t, err, common.ErrInvalidParent, "parent %d", parent)
	}
	assert.Equal(t, 0, h.srv.CountRequests(http.MethodPut, "/categories/14"))
}

func TestEditor_UpdateMovesCategory(t *testing.T) {
	h := storeHarness(t)
	forest := loadedForest(t, h)
	editor := admin.NewEditEditor(h.client, h.notify, validation.New(), forest, h.view.Find(14))

	form := editor.Defaults()
	form.ParentID = model.IntPtr(30)
	updated, err := editor.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Level)
	assert.Equal(t, []string{"Category updated"}, h.notify.Messages("success"))

	require.NoError(t, h.view.Load(context.Background()))
	oficina := h.view.Find(30)
	require.Len(t, oficina.Children, 1)
	assert.Equal(t, "Telefonía", oficina.Children[0].Name)
}

func TestEditor_UpdateToRoot(t *testing.T) {
	h := storeHarness(t)
	forest := loadedForest(t, h)
	editor := admin.NewEditEditor(h.client, h.notify, validation.New(), forest, h.view.Find(12))

	form := editor.Defaults()
	form.ParentID = nil
	updated, err := editor.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)
	assert.Equal(t, 0, updated.Level)
}

func TestEditor_BackendFieldErrors(t *testing.T) {
	h := storeHarness(t)
	forest := loadedForest(t, h)
	editor := admin.NewCreateEditor(h.client, h.notify, validation.New(), forest, nil)

	h.srv.FailNext(fakeapi.Failure{
		Method: http.MethodPost,
		Status: http.StatusUnprocessableEntity,
		Fields: []map[string]any{{"field": "name", "message": "already exists"}},
	})

	_, err := editor.Submit(context.Background(), validation.CategoryForm{Name: "Hogar", IsActive: true})
	require.Error(t, err)
	assert.Equal(t, "Validation errors:\nname: already exists", h.notify.Last().Message)
	assert.Equal(t, map[string]string{"name": "already exists"}, admin.ErrorMessages(err))
}

func TestEditor_BackendGenericError(t *testing.T) {
	h := storeHarness(t)
	forest := loadedForest(t, h)
	editor := admin.NewEditEditor(h.client, h.notify, validation.New(), forest, h.view.Find(30))

	h.srv.FailNext(fakeapi.Failure{Method: http.MethodPut, Status: http.StatusInternalServerError, Raw: "oops"})

	form := editor.Defaults()
	_, err := editor.Submit(context.Background(), form)
	require.Error(t, err)
	assert.Equal(t, "Failed to update the category", h.notify.Last().Message)
}
