package engine

import (
	"fmt"
	"time"

	"github.com/ternarybob/harvester/internal/common"
)

// ConfigFromCommon translates the TOML-facing common.EngineConfig (string
// durations, validated at load time) into the engine's own Config.
func ConfigFromCommon(ec common.EngineConfig, outputDir string) (Config, error) {
	connect, err := time.ParseDuration(ec.ConnectTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("engine.connect_timeout: %w", err)
	}
	request, err := time.ParseDuration(ec.RequestTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("engine.request_timeout: %w", err)
	}
	extract, err := time.ParseDuration(ec.ExtractTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("engine.extract_timeout: %w", err)
	}
	convert, err := time.ParseDuration(ec.ConvertTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("engine.convert_timeout: %w", err)
	}
	tokenize, err := time.ParseDuration(ec.TokenizeTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("engine.tokenize_timeout: %w", err)
	}
	writing, err := time.ParseDuration(ec.WritingTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("engine.writing_timeout: %w", err)
	}

	return Config{
		ConnectTimeout:      connect,
		RequestTimeout:      request,
		ExtractTimeout:      extract,
		ConvertTimeout:      convert,
		TokenizeTimeout:     tokenize,
		WritingTimeout:      writing,
		RedirectLimit:       ec.RedirectLimit,
		MaxBytes:            ec.MaxBytes,
		AllowedContentTypes: ec.AllowedContentTypes,
		MaxLinks:            ec.MaxLinks,
		OutputDir:           outputDir,
	}, nil
}

// ExportOptionsFromCommon translates the export section of common.Config
// into the engine's ExportOptions.
func ExportOptionsFromCommon(ec common.ExportConfig) ExportOptions {
	return ExportOptions{
		OutputFilename:   ec.OutputFilename,
		ManifestFilename: ec.ManifestFilename,
		DelimiterStart:   ec.DelimiterStart,
		DelimiterEnd:     ec.DelimiterEnd,
		PDFEnabled:       ec.PDFEnabled,
		PDFFilename:      ec.PDFFilename,
	}
}
