package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds packaging parameters shared by the gst binaries.
type Config struct {
	// Platform selects the target OS family: "windows", "darwin" or "linux".
	Platform string `yaml:"platform"`
	// Prefix overrides the framework installation root.
	// When empty, the platform backend discovers it.
	Prefix string `yaml:"prefix"`
	// CacheDir stores downloaded installers and tools between runs.
	CacheDir string `yaml:"cache_dir"`
	// BuildDir is where build trees and package layouts are assembled.
	BuildDir string `yaml:"build_dir"`
	// PushSource is the nuget feed URL that finished packages are pushed to.
	PushSource string `yaml:"push_source"`
	// PluginsFile lists plugin names to package, one per line, # comments allowed.
	PluginsFile string `yaml:"plugins_file"`
	// Libraries are the framework library names shipped alongside the plugins.
	Libraries []string `yaml:"libraries"`
	// RelocatorSystemPrefixes are directories whose libraries are never
	// relocated because they exist on every target machine. When empty,
	// the relocator falls back to its built-in defaults.
	RelocatorSystemPrefixes []string `yaml:"relocator_system_prefixes"`
	// Timeout bounds single external tool invocations during packaging.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// PlatformWindows targets PE binaries and msi installers.
	PlatformWindows = "windows"
	// PlatformDarwin targets Mach-O binaries and pkg installers.
	PlatformDarwin = "darwin"
	// PlatformLinux targets ELF binaries. Dependency scanning only.
	PlatformLinux = "linux"

	// DefaultConfigFilename is the default filename for packaging settings.
	DefaultConfigFilename = "gst-packager-settings.yaml"

	// DefaultPluginsFilename is the default plugin list consumed by the packager.
	DefaultPluginsFilename = "plugins_list.txt"

	// DefaultPushSource is the nuget feed packages are pushed to.
	DefaultPushSource = "https://nuget.pkg.github.com/longomatch/index.json"

	// DefaultTimeout is the default bound for a single external tool run.
	DefaultTimeout = 15 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnsupportedPlatform is returned for platform values outside the three OS families.
	errUnsupportedPlatform = errors.New("unsupported platform")
)

// DefaultLibraries returns the framework libraries shipped with every package.
func DefaultLibraries() []string {
	return []string{
		"gstreamer-1.0",
		"gstapp-1.0",
		"gstaudio-1.0",
		"gstbase-1.0",
		"gstcontroller-1.0",
		"gstfft-1.0",
		"gstgl-1.0",
		"gstnet-1.0",
		"gstpbutils-1.0",
		"gstrtp-1.0",
		"gstrtsp-1.0",
		"gstsdp-1.0",
		"gsttag-1.0",
		"gstvideo-1.0",
		"gstwebrtc-1.0",
		"ges-1.0",
	}
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Platform == "" {
		cfg.Platform = runtime.GOOS
	}

	switch cfg.Platform {
	case PlatformWindows, PlatformDarwin, PlatformLinux:
	default:
		return fmt.Errorf("%w: %s", errUnsupportedPlatform, cfg.Platform)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.PluginsFile == "" {
		cfg.PluginsFile = DefaultPluginsFilename
	}

	if len(cfg.Libraries) == 0 {
		cfg.Libraries = DefaultLibraries()
	}

	if cfg.PushSource == "" {
		cfg.PushSource = DefaultPushSource
	}

	if _, err := url.ParseRequestURI(cfg.PushSource); err != nil {
		return fmt.Errorf("invalid push source URI: %w", err)
	}

	return nil
}
