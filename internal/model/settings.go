package model

import "time"

// ConfigType names one section of the system configuration.
type ConfigType string

// Configuration sections exposed by /settings/{type}.
const (
	ConfigCompany   ConfigType = "company"
	ConfigFiscal    ConfigType = "fiscal"
	ConfigBusiness  ConfigType = "business"
	ConfigTechnical ConfigType = "technical"
	ConfigBackup    ConfigType = "backup"
)

// ConfigTypes lists every configuration section in display order.
var ConfigTypes = []ConfigType{ConfigCompany, ConfigFiscal, ConfigBusiness, ConfigTechnical, ConfigBackup}

// Valid reports whether t is a known section.
func (t ConfigType) Valid() bool {
	for _, ct := range ConfigTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// CompanyConfig holds the company identity shown on documents.
type CompanyConfig struct {
	Logo    *string `json:"logo"`
	Name    string  `json:"name" validate:"required,min=3"`
	RUC     string  `json:"ruc" validate:"required,min=10,max=13"`
	Address string  `json:"address" validate:"required"`
	Phone   string  `json:"phone" validate:"required,min=7,max=20"`
	Email   string  `json:"email" validate:"required,email"`
}

// FiscalConfig holds tax settings.
type FiscalConfig struct {
	Country       string  `json:"country" validate:"required,country"`
	Currency      string  `json:"currency" validate:"required,currency_code"`
	TaxRegime     string  `json:"taxRegime" validate:"required,tax_regime"`
	IVAPercentage float64 `json:"ivaPercentage" validate:"gte=0,lte=100"`
}

// BusinessConfig holds commercial rules.
type BusinessConfig struct {
	MinStock              int     `json:"minStock" validate:"gte=0"`
	DefaultCreditDays     int     `json:"defaultCreditDays" validate:"gte=0"`
	MaxDiscountPercentage float64 `json:"maxDiscountPercentage" validate:"gte=0,lte=100"`
}

// TechnicalConfig holds session and formatting parameters.
type TechnicalConfig struct {
	DateFormat            string `json:"dateFormat" validate:"required,oneof=DD/MM/YYYY MM/DD/YYYY YYYY-MM-DD"`
	TimeFormat            string `json:"timeFormat" validate:"required,oneof=12h 24h"`
	SessionTimeoutMinutes int    `json:"sessionTimeoutMinutes" validate:"gte=15"`
	LogRetentionDays      int    `json:"logRetentionDays" validate:"gte=7"`
}

// BackupConfig holds the automatic backup schedule.
type BackupConfig struct {
	NextBackup *time.Time `json:"nextBackup,omitempty"`
	Frequency  string     `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	Time       string     `json:"time" validate:"required,clock"`
	Enabled    bool       `json:"enabled"`
}

// SystemConfiguration is the payload of GET /settings.
type SystemConfiguration struct {
	Company   CompanyConfig   `json:"company"`
	Fiscal    FiscalConfig    `json:"fiscal"`
	Business  BusinessConfig  `json:"business"`
	Technical TechnicalConfig `json:"technical"`
	Backup    BackupConfig    `json:"backup"`
}

// SettingsUpdate is the body of PUT /settings. Backup has its own endpoint.
type SettingsUpdate struct {
	Company   CompanyConfig   `json:"company"`
	Fiscal    FiscalConfig    `json:"fiscal"`
	Business  BusinessConfig  `json:"business"`
	Technical TechnicalConfig `json:"technical"`
}

// ConfigurationSection is the payload of GET /settings/{type}.
type ConfigurationSection struct {
	LastUpdated time.Time      `json:"lastUpdated"`
	Data        map[string]any `json:"data"`
	Type        ConfigType     `json:"type"`
}

// LogoUpload is the payload returned after a logo upload.
type LogoUpload struct {
	LogoURL string `json:"logoUrl"`
}

// Currency describes a supported currency.
type Currency struct {
	Code   string
	Symbol string
	Name   string
}

// Supported reference values for the settings forms.
var (
	Countries = map[string]string{
		"EC": "Ecuador",
		"CO": "Colombia",
		"PE": "Perú",
		"US": "Estados Unidos",
		"MX": "México",
	}

	Currencies = map[string]Currency{
		"USD": {Code: "USD", Symbol: "$", Name: "Dólar estadounidense"},
		"EUR": {Code: "EUR", Symbol: "€", Name: "Euro"},
		"COP": {Code: "COP", Symbol: "$", Name: "Peso colombiano"},
		"PEN": {Code: "PEN", Symbol: "S/", Name: "Sol peruano"},
		"MXN": {Code: "MXN", Symbol: "$", Name: "Peso mexicano"},
	}

	TaxRegimes = []string{
		"Régimen General",
		"Régimen Simplificado",
		"RISE",
		"Régimen Popular",
	}

	BackupFrequencies = []string{"daily", "weekly", "monthly"}
	DateFormats       = []string{"DD/MM/YYYY", "MM/DD/YYYY", "YYYY-MM-DD"}
	TimeFormats       = []string{"12h", "24h"}
)

// DefaultSystemConfiguration returns the values a blank settings form starts with.
func DefaultSystemConfiguration() SystemConfiguration {
	return SystemConfiguration{
		Fiscal: FiscalConfig{
			Country:       "EC",
			Currency:      "USD",
			TaxRegime:     "Régimen General",
			IVAPercentage: 15,
		},
		Business: BusinessConfig{
			MinStock:              10,
			DefaultCreditDays:     30,
			MaxDiscountPercentage: 20,
		},
		Technical: TechnicalConfig{
			SessionTimeoutMinutes: 120,
			LogRetentionDays:      90,
			DateFormat:            "DD/MM/YYYY",
			TimeFormat:            "24h",
		},
		Backup: BackupConfig{
			Enabled:   true,
			Frequency: "daily",
			Time:      "02:00",
		},
	}
}
