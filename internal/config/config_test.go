package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/commerce-admin/internal/common"
	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.API.Retries)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, model.StatusActive, cfg.UI.Filter)
	assert.Equal(t, "USD", cfg.UI.Currency)
	assert.Equal(t, language.AmericanEnglish, cfg.UI.Locale)
}

func TestLoad_Overrides(t *testing.T) {
	v := newViper()
	v.Set("api.base_url", "https://shop.example.com/api/v1/")
	v.Set("api.timeout", "5s")
	v.Set("logging.level", "DEBUG")
	v.Set("logging.format", "json")
	v.Set("ui.filter", "all")
	v.Set("ui.currency", "pen")
	v.Set("ui.locale", "es-PE")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, model.StatusAll, cfg.UI.Filter)
	assert.Equal(t, "PEN", cfg.UI.Currency)
	assert.Equal(t, "es-PE", cfg.UI.Locale.String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr error
	}{
		{name: "empty url", key: "api.base_url", value: "", wantErr: common.ErrMissingConfig},
		{name: "relative url", key: "api.base_url", value: "/api/v1", wantErr: common.ErrInvalidConfig},
		{name: "zero timeout", key: "api.timeout", value: "0s", wantErr: common.ErrInvalidConfig},
		{name: "no retries", key: "api.retries", value: 0, wantErr: common.ErrInvalidConfig},
		{name: "log level", key: "logging.level", value: "verbose", wantErr: common.ErrInvalidConfig},
		{name: "log format", key: "logging.format", value: "xml", wantErr: common.ErrInvalidConfig},
		{name: "filter", key: "ui.filter", value: "deleted", wantErr: common.ErrInvalidConfig},
		{name: "currency", key: "ui.currency", value: "dollars", wantErr: common.ErrInvalidConfig},
		{name: "locale", key: "ui.locale", value: "not a locale!", wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("CADMIN_TEST_DIR", "/srv/cadmin")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "exports"), ExpandPath("~/exports"))
	assert.Equal(t, "/srv/cadmin/tree.xlsx", ExpandPath("$CADMIN_TEST_DIR/tree.xlsx"))
	assert.Equal(t, "relative/file", ExpandPath("relative/file"))
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/cadmin", Dir())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CADMIN_DOTENV_URL=http://backend:3000/api/v1\nCADMIN_DOTENV_KEEP=fromfile\n"), 0o600))

	t.Setenv("CADMIN_DOTENV_KEEP", "fromenv")
	t.Setenv("CADMIN_DOTENV_URL", "")
	require.NoError(t, os.Unsetenv("CADMIN_DOTENV_URL"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "http://backend:3000/api/v1", os.Getenv("CADMIN_DOTENV_URL"))
	assert.Equal(t, "fromenv", os.Getenv("CADMIN_DOTENV_KEEP"), "existing variables win")

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "nothing.env")))
}
