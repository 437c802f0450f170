package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// InitConfig writes a sample configuration file to the default location
// and returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration file to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateYAMLWithComments renders cfg one section at a time, each preceded
// by a comment block.
func generateYAMLWithComments(cfg *Config) (string, error) {
	sections := []struct {
		key     string
		comment string
		value   any
	}{
		{"logging", "Logging: level is DEBUG, INFO, WARN or ERROR; output is stdout, stderr or a file path", cfg.Logging},
		{"handles", "Handles: export root, maximum recorded path depth (1-51) and generation strategy\n# (auto, native, query or inode)", cfg.Handles},
		{"cache", "Path cache: number of slots and the hint store used to warm-start it\n# (hints.type is none, memory or badger)", cfg.Cache},
		{"search", "Uncached searches per second (0 = unlimited) and burst size", cfg.Search},
		{"metrics", "Prometheus endpoint", cfg.Metrics},
	}

	var b strings.Builder
	b.WriteString("# nfsfh Configuration File\n")
	b.WriteString("#\n")
	b.WriteString("# Every value can be overridden with an NFSFH_ environment variable,\n")
	b.WriteString("# e.g. NFSFH_LOGGING_LEVEL=DEBUG.\n\n")

	for _, s := range sections {
		out, err := yaml.Marshal(map[string]any{s.key: s.value})
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s section: %w", s.key, err)
		}
		fmt.Fprintf(&b, "# %s\n", s.comment)
		b.Write(out)
		b.WriteString("\n")
	}

	return b.String(), nil
}
