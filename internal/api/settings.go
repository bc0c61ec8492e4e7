package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"

	"github.com/Veraticus/commerce-admin/internal/model"
)

const (
	settingsPath       = "/settings"
	settingsLogoPath   = "/settings/logo"
	settingsBackupPath = "/settings/backup/configure"
	settingsTechPath   = "/settings/technical/parameters"
	settingsHealthPath = "/settings/health"

	// LogoField is the multipart field the backend reads the logo from.
	LogoField = "logo"
)

// GetSettings fetches the whole system configuration.
func (c *Client) GetSettings(ctx context.Context) (*model.SystemConfiguration, error) {
	var cfg model.SystemConfiguration
	if err := c.get(ctx, settingsPath, nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateSettings replaces the company, fiscal, business and technical sections.
func (c *Client) UpdateSettings(ctx context.Context, update model.SettingsUpdate) error {
	return c.sendJSON(ctx, http.MethodPut, settingsPath, update, nil)
}

// GetSection fetches one configuration section.
func (c *Client) GetSection(ctx context.Context, section model.ConfigType) (*model.ConfigurationSection, error) {
	if !section.Valid() {
		return nil, fmt.Errorf("unknown settings section %q", section)
	}
	var out model.ConfigurationSection
	if err := c.get(ctx, settingsPath+"/"+string(section), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSection replaces one configuration section.
func (c *Client) UpdateSection(ctx context.Context, section model.ConfigType, data any) error {
	if !section.Valid() {
		return fmt.Errorf("unknown settings section %q", section)
	}
	return c.sendJSON(ctx, http.MethodPut, settingsPath+"/"+string(section), data, nil)
}

// ConfigureBackup stores the automatic backup schedule.
func (c *Client) ConfigureBackup(ctx context.Context, cfg model.BackupConfig) error {
	return c.sendJSON(ctx, http.MethodPost, settingsBackupPath, cfg, nil)
}

// UploadLogo sends the company logo as multipart form data. Size and format
// checks belong to the caller; the content type is sniffed from the data.
func (c *Client) UploadLogo(ctx context.Context, filename string, r io.Reader) (*model.LogoUpload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read logo: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, LogoField, filepath.Base(filename)))
	header.Set("Content-Type", http.DetectContentType(data))

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write logo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var out model.LogoUpload
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        settingsLogoPath,
		body:        &body,
		contentType: mw.FormDataContentType(),
		out:         &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTechnicalParameters fetches the backend's technical parameters.
func (c *Client) GetTechnicalParameters(ctx context.Context) (map[string]any, error) {
	var params map[string]any
	if err := c.get(ctx, settingsTechPath, nil, &params); err != nil {
		return nil, err
	}
	return params, nil
}

// SettingsHealth checks the settings module of the backend.
func (c *Client) SettingsHealth(ctx context.Context) (string, error) {
	return c.Health(ctx, settingsHealthPath)
}
