// Package config handles configuration of the xfile tools.
package config

import (
	"fmt"

	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/xbin"
	"github.com/pvcod/xfile/xexport"
)

// Config holds all tool settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Import  ImportConfig  `yaml:"import"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds settings used when writing assets.
type ExportConfig struct {
	ModelVersion int      `yaml:"model_version"`
	Compress     bool     `yaml:"compress"`
	MatchFinder  bool     `yaml:"match_finder"`
	EmbedNotes   bool     `yaml:"embed_notes"`
	Header       []string `yaml:"header"`
}

// ImportConfig holds settings used when reading assets.
type ImportConfig struct {
	SplitMeshes      bool    `yaml:"split_meshes"`
	Scale            float32 `yaml:"scale"`
	UseNotetrackFile bool    `yaml:"use_notetrack_file"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			ModelVersion: int(xfile.DefaultVersion),
			Compress:     true,
			MatchFinder:  false,
			EmbedNotes:   true,
		},
		Import: ImportConfig{
			SplitMeshes:      true,
			Scale:            1,
			UseNotetrackFile: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	if err := xfile.FormatVersion(c.Export.ModelVersion).Check(); err != nil {
		return fmt.Errorf("export.model_version: %w", err)
	}
	if c.Import.Scale <= 0 {
		return fmt.Errorf("import.scale: must be positive, got %g", c.Import.Scale)
	}
	return nil
}

// BinaryEncoder returns an encoder for the binary formats.
func (c ExportConfig) BinaryEncoder() xbin.Encoder {
	e := xbin.Encoder{
		Version:      xfile.FormatVersion(c.ModelVersion),
		Uncompressed: !c.Compress,
		Header:       c.Header,
	}
	if c.MatchFinder {
		e.Compressor = xbin.MatchCompressor{}
	}
	return e
}

// TextEncoder returns an encoder for the text formats.
func (c ExportConfig) TextEncoder() xexport.Encoder {
	return xexport.Encoder{
		Version:    xfile.FormatVersion(c.ModelVersion),
		Header:     c.Header,
		EmbedNotes: c.EmbedNotes,
	}
}
