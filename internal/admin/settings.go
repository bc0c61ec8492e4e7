package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Veraticus/commerce-admin/internal/api"
	"github.com/Veraticus/commerce-admin/internal/common"
	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/Veraticus/commerce-admin/internal/service"
	"github.com/Veraticus/commerce-admin/internal/validation"
)

// PendingLogo is a logo selected but not uploaded yet.
type PendingLogo struct {
	Name        string
	ContentType string
	Data        []byte
}

// SettingsPage backs the system settings screen.
type SettingsPage struct {
	svc       service.SettingsService
	notify    service.Notifier
	validator *validation.Validator
	current   *model.SystemConfiguration
	logo      *PendingLogo
	mu        sync.Mutex
}

// NewSettingsPage creates a settings page.
func NewSettingsPage(svc service.SettingsService, notify service.Notifier, v *validation.Validator) *SettingsPage {
	return &SettingsPage{svc: svc, notify: notify, validator: v}
}

// Load fetches the configuration. Until a load succeeds the defaults are used.
func (p *SettingsPage) Load(ctx context.Context) (model.SystemConfiguration, error) {
	cfg, err := p.svc.GetSettings(ctx)
	if err != nil {
		common.LogError(err, "failed to load settings", nil)
		p.notify.Error("", "Failed to load the configuration")
		return p.Current(), fmt.Errorf("failed to load settings: %w", err)
	}

	p.mu.Lock()
	p.current = cfg
	p.mu.Unlock()
	return *cfg, nil
}

// Current returns the last loaded configuration, or the defaults.
func (p *SettingsPage) Current() model.SystemConfiguration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return model.DefaultSystemConfiguration()
	}
	return *p.current
}

// SelectLogo reads and checks a logo file and keeps it for the next save.
func (p *SettingsPage) SelectLogo(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read logo: %w", err)
	}
	if info.Size() > validation.MaxLogoBytes {
		p.notify.Error("", "The file is too large. Maximum 2MB")
		return validation.Errors{{Field: "logo", Message: "logo must be 2MB or smaller"}}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read logo: %w", err)
	}

	contentType, err := p.validator.Logo(data)
	if err != nil {
		p.notify.Error("", "Invalid image format. Use JPG or PNG")
		return err
	}

	p.mu.Lock()
	p.logo = &PendingLogo{Name: filepath.Base(path), ContentType: contentType, Data: data}
	p.mu.Unlock()
	return nil
}

// PendingLogo returns the selected logo, if any.
func (p *SettingsPage) PendingLogo() *PendingLogo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logo
}

// ClearLogo drops the selected logo.
func (p *SettingsPage) ClearLogo() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logo = nil
}

// SaveAll validates every section, saves company, fiscal, business and
// technical settings, then uploads the selected logo. A failed upload does not
// undo the saved settings.
func (p *SettingsPage) SaveAll(ctx context.Context, cfg model.SystemConfiguration) error {
	if err := p.validator.Struct(cfg); err != nil {
		p.notify.Error("", "Please fix the errors in the form")
		return err
	}

	update := model.SettingsUpdate{
		Company:   cfg.Company,
		Fiscal:    cfg.Fiscal,
		Business:  cfg.Business,
		Technical: cfg.Technical,
	}
	if err := p.svc.UpdateSettings(ctx, update); err != nil {
		common.LogError(err, "failed to save settings", nil)
		p.notify.Error("", api.UserMessage(err, "Failed to save the configuration"))
		return fmt.Errorf("failed to save settings: %w", err)
	}
	p.notify.Success("", "Configuration saved")

	p.mu.Lock()
	saved := cfg
	if p.current != nil {
		saved.Company.Logo = p.current.Company.Logo
		saved.Backup = p.current.Backup
	}
	p.current = &saved
	p.mu.Unlock()

	return p.uploadLogo(ctx)
}

// UploadLogo uploads the selected logo without touching the other settings.
func (p *SettingsPage) UploadLogo(ctx context.Context) error {
	if p.PendingLogo() == nil {
		return validation.Errors{{Field: "logo", Message: "no logo selected"}}
	}
	return p.uploadLogo(ctx)
}

func (p *SettingsPage) uploadLogo(ctx context.Context) error {
	logo := p.PendingLogo()
	if logo == nil {
		return nil
	}

	out, err := p.svc.UploadLogo(ctx, logo.Name, bytes.NewReader(logo.Data))
	if err != nil {
		common.LogError(err, "failed to upload logo", common.Fields{"file": logo.Name})
		p.notify.Error("", "Failed to upload the logo")
		return fmt.Errorf("failed to upload logo: %w", err)
	}

	p.mu.Lock()
	p.logo = nil
	if p.current != nil {
		url := out.LogoURL
		p.current.Company.Logo = &url
	}
	p.mu.Unlock()

	p.notify.Success("", "Logo updated")
	return nil
}

// SaveBackup validates and stores the backup schedule.
func (p *SettingsPage) SaveBackup(ctx context.Context, cfg model.BackupConfig) error {
	if err := p.validator.Backup(cfg); err != nil {
		p.notify.Error("", "Please fix the errors in the backup configuration")
		return err
	}

	if err := p.svc.ConfigureBackup(ctx, cfg); err != nil {
		common.LogError(err, "failed to configure backups", nil)
		p.notify.Error("", "Failed to configure backups")
		return fmt.Errorf("failed to configure backups: %w", err)
	}

	p.mu.Lock()
	if p.current != nil {
		p.current.Backup = cfg
	}
	p.mu.Unlock()

	p.notify.Success("", "Backup configuration saved")
	return nil
}

// ErrorMessages maps field paths to messages for a failed save, whether the
// form was rejected locally or by the backend.
func ErrorMessages(err error) map[string]string {
	out := make(map[string]string)

	var local validation.Errors
	if errors.As(err, &local) {
		for _, fe := range local {
			out[fe.Field] = fe.Message
		}
		return out
	}

	var remote *api.Error
	if errors.As(err, &remote) {
		for _, fe := range remote.Fields {
			field := fe.Field
			if field == "" {
				field = "field"
			}
			out[field] = fe.Message
		}
	}
	return out
}
