// Package service defines the interfaces for the backend collaborators.
package service

import (
	"context"
	"io"

	"github.com/Veraticus/commerce-admin/internal/model"
)

// CategoryService is the REST surface for product categories.
type CategoryService interface {
	ListCategories(ctx context.Context, status model.StatusFilter) ([]*model.Category, error)
	GetCategory(ctx context.Context, id int) (*model.Category, error)
	CreateCategory(ctx context.Context, req model.CreateCategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int, req model.UpdateCategoryRequest) (*model.Category, error)
	SetCategoryStatus(ctx context.Context, id int, active bool) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int) error
	GetCategoryProducts(ctx context.Context, id int) (*model.CategoryProducts, error)
}

// SettingsService is the REST surface for system configuration.
type SettingsService interface {
	GetSettings(ctx context.Context) (*model.SystemConfiguration, error)
	UpdateSettings(ctx context.Context, update model.SettingsUpdate) error
	GetSection(ctx context.Context, section model.ConfigType) (*model.ConfigurationSection, error)
	UpdateSection(ctx context.Context, section model.ConfigType, data any) error
	ConfigureBackup(ctx context.Context, cfg model.BackupConfig) error
	UploadLogo(ctx context.Context, filename string, r io.Reader) (*model.LogoUpload, error)
	GetTechnicalParameters(ctx context.Context) (map[string]any, error)
}

// Notifier shows transient feedback to the operator. An empty title selects
// the default title for the level.
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
	Warning(title, message string)
	Info(title, message string)
}

// Confirmer asks the operator to confirm a destructive action. It must block
// until the operator answers or ctx is done.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) (bool, error)
}
