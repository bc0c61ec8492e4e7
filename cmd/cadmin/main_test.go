package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/commerce-admin/internal/common"
	"github.com/Veraticus/commerce-admin/internal/export"
	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/Veraticus/commerce-admin/internal/testutil/categories"
	"github.com/Veraticus/commerce-admin/internal/testutil/fakeapi"
	"github.com/Veraticus/commerce-admin/internal/tree"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newStore(t *testing.T) *fakeapi.Server {
	t.Helper()
	srv := fakeapi.New(t)
	srv.Seed(categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build())
	return srv
}

// execute runs the command tree against srv with stdin as the user's input.
func execute(t *testing.T, srv *fakeapi.Server, stdin string, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))

	url := "http://127.0.0.1:1/api/v1"
	if srv != nil {
		url = srv.URL()
	}
	root.SetArgs(append(args, "--api-url", url, "--retries", "1", "--log-level", "error"))

	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, nil, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "cadmin dev\n", out)
}

func TestRootCmd_Commands(t *testing.T) {
	root := newRootCmd()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"categories", "settings", "health", "version"})

	cat, _, err := root.Find([]string{"categories"})
	require.NoError(t, err)
	sub := make([]string, 0)
	for _, c := range cat.Commands() {
		sub = append(sub, c.Name())
	}
	assert.ElementsMatch(t, []string{
		"list", "tree", "show", "products", "parents", "add", "update",
		"status", "delete", "browse", "export", "import",
	}, sub)
}

func TestInvalidConfig(t *testing.T) {
	_, err := execute(t, newStore(t), "", "categories", "list", "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
}

func TestMalformedConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed\n"), 0o600))

	_, err := execute(t, newStore(t), "", "--config", path, "categories", "list")
	require.Error(t, err)

	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "Could not read the configuration file", userErr.UserMessage)
}

func TestConfigFromEnvironment(t *testing.T) {
	srv := newStore(t)
	t.Setenv("CADMIN_UI_FILTER", "inactive")

	out, err := execute(t, srv, "", "categories", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Jardín")
	assert.NotContains(t, out, "Oficina")
}

func TestCategoriesList(t *testing.T) {
	srv := newStore(t)

	out, err := execute(t, srv, "", "categories", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "— Computadoras")
	assert.Contains(t, out, "——— Accesorios")
	assert.NotContains(t, out, "Jardín", "inactive categories are hidden by default")

	out, err = execute(t, srv, "", "categories", "list", "--status", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "Jardín")

	_, err = execute(t, srv, "", "categories", "list", "--status", "deleted")
	assert.Error(t, err)
}

func TestCategoriesListJSON(t *testing.T) {
	out, err := execute(t, newStore(t), "", "categories", "list", "-o", "json")
	require.NoError(t, err)

	var forest []*model.Category
	require.NoError(t, json.Unmarshal([]byte(out), &forest))
	require.Len(t, forest, 3)
	assert.Equal(t, "Electrónica", forest[0].Name)
	assert.Len(t, forest[0].Children, 2)
}

func TestCategoriesTree(t *testing.T) {
	out, err := execute(t, newStore(t), "", "categories", "tree", "--depth", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Categories")
	assert.Contains(t, out, "Computadoras [11] (+2)")
	assert.Contains(t, out, "Telefonía [14] (+2)")
	assert.NotContains(t, out, "Laptops")
}

func TestCategoriesShow(t *testing.T) {
	srv := newStore(t)

	out, err := execute(t, srv, "", "categories", "show", "14")
	require.NoError(t, err)
	assert.Contains(t, out, "Telefonía")
	assert.Contains(t, out, "Subcategories: 1")

	_, err = execute(t, srv, "", "categories", "show", "999")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = execute(t, srv, "", "categories", "show", "abc")
	assert.Error(t, err)
}

func TestCategoriesProducts(t *testing.T) {
	srv := newStore(t)
	srv.SetProducts(16, []model.CategoryProduct{
		{ID: 7, Code: "ACC-01", Name: "Funda", Price: 1250.5, Stock: 40},
	})

	out, err := execute(t, srv, "", "categories", "products", "16")
	require.NoError(t, err)
	assert.Contains(t, out, "Electrónica / Telefonía / Smartphones / Accesorios")
	assert.Contains(t, out, "ACC-01")
	assert.Contains(t, out, "$1,250.50")
	assert.Contains(t, out, "1 products")
}

func TestCategoriesParents(t *testing.T) {
	out, err := execute(t, newStore(t), "", "categories", "parents", "--for", "14")
	require.NoError(t, err)
	assert.Contains(t, out, `Edit "Telefonía"`)
	assert.Contains(t, out, "— Computadoras")
	assert.Contains(t, out, "Oficina")
	assert.NotContains(t, out, "Smartphones")
	assert.NotContains(t, out, "Accesorios")
}

func TestCategoriesAdd(t *testing.T) {
	srv := newStore(t)

	out, err := execute(t, srv, "", "categories", "add", "Papelería", "--parent", "30", "--description", "Útiles")
	require.NoError(t, err)
	assert.Contains(t, out, `Created category "Papelería"`)
	assert.Contains(t, out, "Category created")
	assert.Equal(t, 1, srv.CountRequests(http.MethodPost, "/categories"))

	_, err = execute(t, srv, "", "categories", "add", "Papelería", "--parent", "999")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCategoriesAddValidation(t *testing.T) {
	srv := newStore(t)

	out, err := execute(t, srv, "", "categories", "add", "X")
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, out, "Please fix the errors in the form")
	assert.Contains(t, out, "name:")
	assert.Equal(t, 0, srv.CountRequests(http.MethodPost, "/categories"))
}

func TestCategoriesUpdate(t *testing.T) {
	srv := newStore(t)

	out, err := execute(t, srv, "", "categories", "update", "14", "--parent", "30")
	require.NoError(t, err)
	assert.Contains(t, out, `Updated category "Telefonía" (level 1)`)

	c, ok := srv.Category(14)
	require.True(t, ok)
	require.NotNil(t, c.ParentID)
	assert.Equal(t, 30, *c.ParentID)

	_, err = execute(t, srv, "", "categories", "update", "14", "--root", "--name", "Telefonía móvil")
	require.NoError(t, err)
	c, _ = srv.Category(14)
	assert.Nil(t, c.ParentID)
	assert.Equal(t, "Telefonía móvil", c.Name)
}

func TestCategoriesUpdateRejected(t *testing.T) {
	srv := newStore(t)

	_, err := execute(t, srv, "", "categories", "update", "11", "--parent", "12")
	assert.ErrorIs(t, err, common.ErrInvalidParent)

	_, err = execute(t, srv, "", "categories", "update", "11")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must specify")

	_, err = execute(t, srv, "", "categories", "update", "11", "--root", "--parent", "10")
	assert.Error(t, err)
	assert.Equal(t, 0, srv.CountRequests(http.MethodPut, "/categories/11"))
}

func TestCategoriesStatus(t *testing.T) {
	srv := newStore(t)

	out, err := execute(t, srv, "n\n", "categories", "status", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "Deactivate category")
	assert.Contains(t, out, "Cancelled")
	c, _ := srv.Category(30)
	assert.True(t, c.IsActive)

	out, err = execute(t, srv, "y\n", "categories", "status", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "Category deactivated")
	assert.Contains(t, out, "Oficina is now")
	c, _ = srv.Category(30)
	assert.False(t, c.IsActive)

	out, err = execute(t, srv, "", "categories", "status", "30", "--force")
	require.NoError(t, err)
	assert.NotContains(t, out, "Activate category")
	c, _ = srv.Category(30)
	assert.True(t, c.IsActive)
}

func TestCategoriesDelete(t *testing.T) {
	srv := newStore(t)

	out, err := execute(t, srv, "", "categories", "delete", "10", "--force")
	require.Error(t, err)
	var done *reportedError
	assert.ErrorAs(t, err, &done)
	assert.Contains(t, out, "cannot delete a category that has active subcategories")
	assert.True(t, srv.Exists(10))

	out, err = execute(t, srv, "", "categories", "delete", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "This action cannot be undone.")
	assert.Contains(t, out, "Cancelled", "end of input declines")
	assert.True(t, srv.Exists(30))

	_, err = execute(t, srv, "yes\n", "categories", "delete", "30")
	require.NoError(t, err)
	assert.False(t, srv.Exists(30))
}

func TestCategoriesExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.xlsx")

	out, err := execute(t, newStore(t), "", "categories", "export", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 11 categories")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(export.SheetCategories)
	require.NoError(t, err)
	assert.Len(t, rows, 12)

	_, err = execute(t, newStore(t), "", "categories", "export", "-o", filepath.Join(t.TempDir(), "tree.csv"))
	assert.Error(t, err)
}

func TestCategoriesImport(t *testing.T) {
	srv := newStore(t)
	path := filepath.Join(t.TempDir(), "bebidas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories:
  - name: Bebidas
    children:
      - name: Gaseosas
      - name: Jugos
`), 0o600))

	out, err := execute(t, srv, "", "categories", "import", path, "--no-progress", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would create 3 categories")
	assert.Equal(t, 0, srv.CountRequests(http.MethodPost, "/categories"))

	out, err = execute(t, srv, "", "categories", "import", path, "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "Created 3 categories")
	assert.Contains(t, out, "Gaseosas")
	assert.Equal(t, 3, srv.CountRequests(http.MethodPost, "/categories"))

	out, err = execute(t, srv, "", "categories", "import", path, "--no-progress")
	require.Error(t, err)
	assert.Contains(t, out, "Bebidas:")
	assert.Contains(t, out, "(2 below skipped)")
}

func TestSettingsShowAndGet(t *testing.T) {
	srv := newStore(t)

	out, err := execute(t, srv, "", "settings", "show", "-o", "json")
	require.NoError(t, err)
	var cfg model.SystemConfiguration
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "Comercial Andina", cfg.Company.Name)

	out, err = execute(t, srv, "", "settings", "get", "fiscal")
	require.NoError(t, err)
	assert.Contains(t, out, "currency: USD")

	_, err = execute(t, srv, "", "settings", "get", "payroll")
	assert.Error(t, err)
}

func TestSettingsUpdate(t *testing.T) {
	srv := newStore(t)

	out, err := execute(t, srv, "", "settings", "update",
		"--set", "company.name=Andina Mayorista",
		"--set", "company.phone=0991234567",
		"--set", "fiscal.ivaPercentage=12")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration saved")

	saved := srv.Settings()
	assert.Equal(t, "Andina Mayorista", saved.Company.Name)
	assert.Equal(t, "0991234567", saved.Company.Phone)
	assert.InDelta(t, 12, saved.Fiscal.IVAPercentage, 0.001)
}

func TestSettingsUpdateRejected(t *testing.T) {
	srv := newStore(t)

	tests := []struct {
		name string
		set  string
		want string
	}{
		{name: "no equals", set: "company.name", want: "invalid --set"},
		{name: "unknown section", set: "payroll.day=1", want: "invalid setting"},
		{name: "unknown field", set: "company.slogan=x", want: "unknown setting"},
		{name: "bad number", set: "fiscal.ivaPercentage=twelve", want: "invalid value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, srv, "", "settings", "update", "--set", tt.set)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	out, err := execute(t, srv, "", "settings", "update", "--set", "company.email=nope")
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, out, "company.email")
	assert.Equal(t, 0, srv.CountRequests(http.MethodPut, "/settings"))
}

func TestSettingsBackup(t *testing.T) {
	srv := newStore(t)

	out, err := execute(t, srv, "", "settings", "backup", "--frequency", "weekly", "--time", "03:30")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup configuration saved")
	assert.Equal(t, "weekly", srv.Settings().Backup.Frequency)
	assert.Equal(t, "03:30", srv.Settings().Backup.Time)

	_, err = execute(t, srv, "", "settings", "backup", "--time", "31:00")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSettingsLogo(t *testing.T) {
	srv := newStore(t)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 32)...)
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, png, 0o600))

	out, err := execute(t, srv, "", "settings", "logo", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Logo updated")
	data, contentType := srv.Logo()
	assert.Equal(t, png, data)
	assert.Equal(t, "image/png", contentType)
}

func TestSettingsTechnical(t *testing.T) {
	out, err := execute(t, newStore(t), "", "settings", "technical")
	require.NoError(t, err)
	assert.Contains(t, out, "apiVersion: v1")
}

func TestHealth(t *testing.T) {
	out, err := execute(t, newStore(t), "", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "categories: ok")
	assert.Contains(t, out, "settings: ok")

	out, err = execute(t, nil, "", "health", "--timeout", "200ms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 health checks failed")
	assert.Contains(t, out, "categories:")
}

func TestWriteStructured(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStructured(&buf, outputYAML, map[string]any{"minStock": 10}))
	assert.Equal(t, "minStock: 10\n", buf.String())

	assert.Error(t, writeStructured(&buf, "xml", nil))
}

func TestWriteTableStylesHeaderAfterAlignment(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build()
	bold := func(strs ...string) string { return "\x1b[1m" + strings.Join(strs, " ") + "\x1b[0m" }

	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, tree.Flatten(forest), bold))

	lines := strings.Split(buf.String(), "\n")
	require.Greater(t, len(lines), 3)
	require.True(t, strings.HasPrefix(lines[0], "\x1b[1m"))

	header := strings.NewReplacer("\x1b[1m", "", "\x1b[0m", "").Replace(lines[0])
	assert.Equal(t, strings.Index(lines[2], " Electrónica"), strings.Index(header, "Name"))
	assert.Len(t, header, len(lines[1]), "header spans the same columns as the rule")
}

func TestRenderTreeSkipsNilChildren(t *testing.T) {
	forest := []*model.Category{
		{ID: 1, Name: "Bebidas", IsActive: true, Children: []*model.Category{
			nil,
			{ID: 2, Name: "Jugos", IsActive: true, Level: 1},
		}},
		nil,
	}

	var out string
	require.NotPanics(t, func() { out = renderTree(forest, 0) })
	assert.Contains(t, out, "Bebidas [1]")
	assert.Contains(t, out, "Jugos [2]")
}
