package common

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the harvester application configuration.
type Config struct {
	Environment string         `toml:"environment" validate:"omitempty,oneof=development production"`
	Server      ServerConfig   `toml:"server"`
	Engine      EngineConfig   `toml:"engine"`
	Output      OutputConfig   `toml:"output"`
	Export      ExportConfig   `toml:"export"`
	Snapshot    SnapshotConfig `toml:"snapshot"`
	Schedule    ScheduleConfig `toml:"schedule"`
	Logging     LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Host string `toml:"host" validate:"required"`
	Port int    `toml:"port" validate:"required,min=1,max=65535"`
}

// EngineConfig mirrors the original FetchSettings plus per-stage timeouts.
// Decode shares extract's budget (the original source gives both the same
// default); the rest are independent per-stage deadlines.
type EngineConfig struct {
	ConnectTimeout      string   `toml:"connect_timeout" validate:"required"`
	RequestTimeout      string   `toml:"request_timeout" validate:"required"`
	ExtractTimeout      string   `toml:"extract_timeout" validate:"required"`
	ConvertTimeout      string   `toml:"convert_timeout" validate:"required"`
	TokenizeTimeout     string   `toml:"tokenize_timeout" validate:"required"`
	WritingTimeout      string   `toml:"writing_timeout" validate:"required"`
	RedirectLimit       int      `toml:"redirect_limit" validate:"min=0"`
	MaxBytes            int64    `toml:"max_bytes" validate:"required,min=1"`
	AllowedContentTypes []string `toml:"allowed_content_types" validate:"required,min=1"`
	MaxLinks            int      `toml:"max_links" validate:"min=1"`
}

type OutputConfig struct {
	Dir string `toml:"dir" validate:"required"`
}

type ExportConfig struct {
	OutputFilename   string `toml:"output_filename" validate:"required"`
	ManifestFilename string `toml:"manifest_filename"`
	DelimiterStart   string `toml:"delimiter_start" validate:"required"`
	DelimiterEnd     string `toml:"delimiter_end" validate:"required"`
	PDFEnabled       bool   `toml:"pdf_enabled"`
	PDFFilename      string `toml:"pdf_filename"`
}

type SnapshotConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// ScheduleConfig drives the optional cron-triggered re-export.
type ScheduleConfig struct {
	Enabled  bool   `toml:"enabled"`
	CronSpec string `toml:"cron_spec"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Output     []string `toml:"output" validate:"required,min=1"`
	TimeFormat string   `toml:"time_format"`
}

// Default returns the built-in configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Environment: "development",
		Server:      ServerConfig{Host: "127.0.0.1", Port: 8080},
		Engine: EngineConfig{
			ConnectTimeout:      "10s",
			RequestTimeout:      "30s",
			ExtractTimeout:      "30s",
			ConvertTimeout:      "15s",
			TokenizeTimeout:     "10s",
			WritingTimeout:      "10s",
			RedirectLimit:       5,
			MaxBytes:            5 * 1024 * 1024,
			AllowedContentTypes: []string{"text/html", "application/xhtml+xml"},
			MaxLinks:            5000,
		},
		Output: OutputConfig{Dir: "./output"},
		Export: ExportConfig{
			OutputFilename:   "export.txt",
			ManifestFilename: "manifest.json",
			DelimiterStart:   "===== DOC START =====",
			DelimiterEnd:     "===== DOC END =====",
			PDFEnabled:       false,
			PDFFilename:      "export.pdf",
		},
		Snapshot: SnapshotConfig{Path: "./data/snapshot", ResetOnStartup: false},
		Schedule: ScheduleConfig{Enabled: false, CronSpec: "0 * * * *"},
		Logging:  LoggingConfig{Level: "info", Output: []string{"stdout"}, TimeFormat: "15:04:05.000"},
	}
}

// LoadFromFile reads a TOML config file, layering it over the built-in
// defaults, then validates the result.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, nil
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
