package validation

import (
	"fmt"
	"net/http"

	"github.com/Veraticus/commerce-admin/internal/model"
)

// Form limits.
const (
	NameMinLength        = 2
	NameMaxLength        = 100
	DescriptionMaxLength = 500
	MaxLogoBytes         = 2 << 20
)

// CategoryForm is the input of the category editor.
type CategoryForm struct {
	ParentID    *int   `json:"parentId"`
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=500"`
	IsActive    bool   `json:"isActive"`
}

// Category sanitizes and validates a category form in place.
func (v *Validator) Category(form *CategoryForm) error {
	form.Name = v.Sanitize(form.Name)
	form.Description = v.Sanitize(form.Description)
	return v.Struct(form)
}

// Settings validates the sections saved together by PUT /settings.
func (v *Validator) Settings(update model.SettingsUpdate) error {
	return v.Struct(update)
}

// Backup validates a backup schedule.
func (v *Validator) Backup(cfg model.BackupConfig) error {
	return v.Struct(cfg)
}

// LogoContentTypes are the accepted logo formats.
var LogoContentTypes = []string{"image/jpeg", "image/png"}

// Logo checks a logo's size and sniffed format and returns its content type.
func (v *Validator) Logo(data []byte) (string, error) {
	if len(data) == 0 {
		return "", Errors{{Field: "logo", Message: "logo file is empty"}}
	}
	if len(data) > MaxLogoBytes {
		return "", Errors{{
			Field:   "logo",
			Message: fmt.Sprintf("logo must be 2MB or smaller, got %.1fMB", float64(len(data))/(1<<20)),
		}}
	}

	contentType := http.DetectContentType(data)
	for _, ct := range LogoContentTypes {
		if ct == contentType {
			return contentType, nil
		}
	}
	return "", Errors{{Field: "logo", Message: "logo must be a JPEG or PNG image"}}
}
