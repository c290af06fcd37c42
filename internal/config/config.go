package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/kodelint/tooler/internal/logger"
	"gopkg.in/yaml.v3"
)

const appName = "tooler"

// DefaultUpdateCheckDays is how long a non-pinned install may go without an
// update check before it is considered stale.
const DefaultUpdateCheckDays = 60

// Paths holds every filesystem location the engine touches. It is resolved
// once at startup and passed down, so the registry and the installation
// pipeline can be pointed at temporary directories in tests.
type Paths struct {
	ConfigDir    string // user-scoped configuration directory
	DataDir      string // user-scoped data directory
	InstallRoot  string // DataDir/tools, one subdirectory per owner__name/version
	RegistryFile string // ConfigDir/registry.json
	SettingsFile string // ConfigDir/config.yaml
}

// Settings are the user-tunable knobs, loaded from the YAML settings file and
// overridable via environment variables.
type Settings struct {
	UpdateCheckDays int `yaml:"update_check_days"`
}

// ResolvePaths determines the config and data directories for the current
// user, honoring TOOLER_CONFIG_DIR and TOOLER_DATA_DIR overrides, and creates
// them if missing.
func ResolvePaths() (Paths, error) {
	configDir := os.Getenv("TOOLER_CONFIG_DIR")
	if configDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Paths{}, fmt.Errorf("could not determine config directory: %w", err)
		}
		configDir = filepath.Join(base, appName)
	}

	dataDir := os.Getenv("TOOLER_DATA_DIR")
	if dataDir == "" {
		base, err := userDataDir()
		if err != nil {
			return Paths{}, fmt.Errorf("could not determine data directory: %w", err)
		}
		dataDir = filepath.Join(base, appName)
	}

	p := Paths{
		ConfigDir:    configDir,
		DataDir:      dataDir,
		InstallRoot:  filepath.Join(dataDir, "tools"),
		RegistryFile: filepath.Join(configDir, "registry.json"),
		SettingsFile: filepath.Join(configDir, "config.yaml"),
	}

	for _, dir := range []string{p.ConfigDir, p.InstallRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, fmt.Errorf("could not create %s: %w", dir, err)
		}
	}
	logger.Debug("[DEBUG] Config dir: %s, data dir: %s\n", p.ConfigDir, p.DataDir)
	return p, nil
}

// userDataDir mirrors the platform conventions for user-scoped data:
// XDG_DATA_HOME (or ~/.local/share) on Linux, Application Support on macOS,
// and the roaming config dir on Windows.
func userDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		return os.UserConfigDir()
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return xdg, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

// LoadSettings reads the YAML settings file if present and applies environment
// overrides. A missing or unreadable file yields the defaults; settings are
// tunables, not required state.
func LoadSettings(path string) Settings {
	s := Settings{UpdateCheckDays: DefaultUpdateCheckDays}

	raw, err := os.ReadFile(path)
	if err == nil {
		var wrapper struct {
			Settings Settings `yaml:"settings"`
		}
		if err := yaml.Unmarshal(raw, &wrapper); err != nil {
			logger.Warn("[WARN] Ignoring malformed settings file %s: %v\n", path, err)
		} else if wrapper.Settings.UpdateCheckDays > 0 {
			s.UpdateCheckDays = wrapper.Settings.UpdateCheckDays
		}
	}

	if env := os.Getenv("TOOLER_UPDATE_CHECK_DAYS"); env != "" {
		if days, err := strconv.Atoi(env); err == nil && days > 0 {
			s.UpdateCheckDays = days
		}
	}
	return s
}

// SaveSettings writes the YAML settings file under the same `settings:`
// wrapper that LoadSettings reads.
func SaveSettings(path string, s Settings) error {
	wrapper := struct {
		Settings Settings `yaml:"settings"`
	}{Settings: s}

	raw, err := yaml.Marshal(wrapper)
	if err != nil {
		return fmt.Errorf("could not marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create settings directory: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("could not write settings file %s: %w", path, err)
	}
	return nil
}
