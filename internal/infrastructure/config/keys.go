package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// DefaultKeysFile is the key file name searched in the working and home
// directories.
const DefaultKeysFile = "config.json"

// Keys holds provider credentials read from the key file.
type Keys struct {
	XAI       string `json:"xai_api_key" yaml:"xai_api_key" toml:"xai_api_key"`
	OpenAI    string `json:"openai_api_key" yaml:"openai_api_key" toml:"openai_api_key"`
	Anthropic string `json:"anthropic_api_key" yaml:"anthropic_api_key" toml:"anthropic_api_key"`
	DeepSeek  string `json:"deepseek_api_key" yaml:"deepseek_api_key" toml:"deepseek_api_key"`
	GitHub    string `json:"github_token" yaml:"github_token" toml:"github_token"`
	HIBP      string `json:"hibp_api_key" yaml:"hibp_api_key" toml:"hibp_api_key"`
}

// Presence reports which keys are configured, without exposing values.
func (k Keys) Presence() map[string]bool {
	return map[string]bool{
		"has_xai_key":       k.XAI != "",
		"has_openai_key":    k.OpenAI != "",
		"has_anthropic_key": k.Anthropic != "",
		"has_deepseek_key":  k.DeepSeek != "",
		"has_github_token":  k.GitHub != "",
		"has_hibp_key":      k.HIBP != "",
	}
}

// KeySearchPath returns the candidate key file locations in priority order.
func KeySearchPath(explicit string) []string {
	paths := make([]string, 0, 3)
	if explicit != "" {
		paths = append(paths, explicit)
	}
	paths = append(paths, DefaultKeysFile)
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".astraterm", DefaultKeysFile))
	}
	return paths
}

// LoadKeys reads the first key file found on the search path. It returns
// the path used, or "" with empty keys when no file exists.
func LoadKeys(explicit string) (*Keys, string, error) {
	for _, path := range KeySearchPath(explicit) {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, path, fmt.Errorf("failed to read key file %s: %w", path, err)
		}

		keys, err := ParseKeys(path, data)
		if err != nil {
			return nil, path, err
		}
		return keys, path, nil
	}
	return &Keys{}, "", nil
}

// ParseKeys decodes key file contents, choosing the format by extension.
// Unknown extensions are treated as JSON.
func ParseKeys(path string, data []byte) (*Keys, error) {
	var keys Keys
	var err error

	switch keyFormat(path) {
	case "yaml":
		err = yaml.Unmarshal(data, &keys)
	case "toml":
		err = toml.Unmarshal(data, &keys)
	default:
		if len(strings.TrimSpace(string(data))) == 0 {
			return &keys, nil
		}
		err = sonic.Unmarshal(data, &keys)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse key file %s: %w", path, err)
	}
	return &keys, nil
}

// SaveKeys writes keys to path in the format implied by its extension.
func SaveKeys(path string, keys Keys) error {
	var data []byte
	var err error

	switch keyFormat(path) {
	case "yaml":
		data, err = yaml.Marshal(keys)
	case "toml":
		data, err = toml.Marshal(keys)
	default:
		data, err = sonic.ConfigStd.MarshalIndent(keys, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

func keyFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}
