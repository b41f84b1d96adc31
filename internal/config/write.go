package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Supported output formats for Marshal.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

// Formats lists the formats accepted by Marshal.
var Formats = []string{FormatYAML, FormatTOML, FormatJSON}

// Marshal renders cfg in the given format.
func Marshal(cfg *Config, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to marshal config as yaml; %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal config as yaml; %w", err)
		}
		return buf.Bytes(), nil
	case FormatTOML:
		data, err := toml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config as toml; %w", err)
		}
		return data, nil
	case FormatJSON:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config as json; %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported format %q; must be one of %s", format, strings.Join(Formats, ", "))
	}
}

// Write writes the configuration as YAML to the specified path.
// Creates the directory with 0700 permissions if it doesn't exist.
// Writes the file with 0600 permissions.
func Write(cfg *Config, path string) error {
	path = expandHome(path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s; %w", dir, err)
	}

	data, err := Marshal(cfg, FormatYAML)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("# chunkalyze configuration\n# Generated: %s\n\n", time.Now().Format(time.RFC3339))
	content := append([]byte(header), data...)

	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s; %w", path, err)
	}

	return nil
}

// WriteDefault writes the configuration to the default config path.
func WriteDefault(cfg *Config) error {
	return Write(cfg, DefaultConfigPath())
}
