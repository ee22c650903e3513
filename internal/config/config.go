// Package config handles configuration loading and validation for weipack.
//
// Configuration comes from two layers: an optional weipack.json defaults
// file in the scan root, and the key=value argument tokens recognized on the
// command line. Tokens always win. Unrecognized tokens and out-of-enum
// values are hard errors reported before any discovery runs.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigErrorType represents the type of configuration error.
type ConfigErrorType string

const (
	FileNotFound    ConfigErrorType = "FILE_NOT_FOUND"
	InvalidJSON     ConfigErrorType = "INVALID_JSON"
	InvalidArgument ConfigErrorType = "INVALID_ARGUMENT"
	ValidationError ConfigErrorType = "VALIDATION_ERROR"
)

// ConfigError represents an error that occurred during configuration
// loading or argument parsing.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
}

func (e *ConfigError) Error() string {
	switch e.Type {
	case FileNotFound:
		return fmt.Sprintf("configuration file not found: %s", e.Message)
	case InvalidJSON:
		return fmt.Sprintf("invalid JSON in configuration file: %s", e.Message)
	case InvalidArgument:
		return fmt.Sprintf("invalid argument: %s", e.Message)
	case ValidationError:
		return fmt.Sprintf("configuration validation error: %s", e.Message)
	default:
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
}

// PackageType selects the archive flavor produced for each mod.
type PackageType string

const (
	TypeIEMod   PackageType = "iemod"
	TypeZip     PackageType = "zip"
	TypeWindows PackageType = "windows"
	TypeLinux   PackageType = "linux"
	TypeMacOS   PackageType = "macos"
	TypeMulti   PackageType = "multi"
)

// NeedsBinary reports whether the package type bundles a WeiDU installer
// binary. Plain zip and iemod archives ship without one.
func (t PackageType) NeedsBinary() bool {
	switch t {
	case TypeWindows, TypeLinux, TypeMacOS, TypeMulti:
		return true
	}
	return false
}

// Architecture selects the WeiDU binary architecture.
type Architecture string

const (
	ArchAMD64     Architecture = "amd64"
	ArchX86       Architecture = "x86"
	ArchX86Legacy Architecture = "x86-legacy"
)

// Suffix and naming selector values. Any other value is taken literally.
const (
	SuffixVersion = "version"
	SuffixNone    = "none"

	NamingTp2 = "tp2"
	NamingIni = "ini"

	// WeiDULatest selects the newest release from the feed.
	WeiDULatest = "latest"
)

// DefaultsFileName is the optional JSON defaults file looked up in the scan
// root.
const DefaultsFileName = "weipack.json"

// Configuration holds all settings for a packaging run.
type Configuration struct {
	Type            PackageType  `json:"type,omitempty"`
	Arch            Architecture `json:"arch,omitempty"`
	Suffix          string       `json:"suffix,omitempty"`
	Extra           string       `json:"extra,omitempty"`
	Naming          string       `json:"naming,omitempty"`
	WeiDU           string       `json:"weidu,omitempty"`
	PrefixWin       string       `json:"prefix_win,omitempty"`
	PrefixLin       string       `json:"prefix_lin,omitempty"`
	PrefixMac       string       `json:"prefix_mac,omitempty"`
	Tp2Name         string       `json:"tp2_name,omitempty"`
	NameFmt         string       `json:"name_fmt,omitempty"`
	MultiAutoupdate bool         `json:"multi_autoupdate"`
	CaseSensitive   bool         `json:"case_sensitive"`
	Beautify        bool         `json:"beautify"`
	LowerCase       bool         `json:"lower_case"`
}

// Default returns the documented default configuration.
func Default() Configuration {
	return Configuration{
		Type:            TypeIEMod,
		Arch:            ArchAMD64,
		Suffix:          SuffixVersion,
		Naming:          NamingTp2,
		WeiDU:           WeiDULatest,
		PrefixWin:       "win",
		PrefixLin:       "lin",
		PrefixMac:       "mac",
		MultiAutoupdate: true,
		Beautify:        true,
	}
}

// Load builds the effective configuration for a run: documented defaults,
// overridden by an optional weipack.json in the scan root, overridden by the
// key=value argument tokens, then validated.
func Load(rootPath string, tokens []string) (*Configuration, error) {
	cfg := Default()

	if err := loadDefaultsFile(filepath.Join(rootPath, DefaultsFileName), &cfg); err != nil {
		return nil, err
	}

	if err := ApplyTokens(&cfg, tokens); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDefaultsFile overlays values from a JSON defaults file onto cfg. A
// missing file is not an error; a malformed one is.
func loadDefaultsFile(path string, cfg *Configuration) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &ConfigError{Type: FileNotFound, Message: path + ": " + err.Error()}
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return &ConfigError{Type: InvalidJSON, Message: err.Error()}
	}

	return nil
}
