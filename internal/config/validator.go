package config

import (
	"fmt"
	"strconv"
	"strings"
)

// MinWeiDUVersion is the oldest WeiDU release the packager supports.
// Earlier releases predate the asset naming scheme the fetcher relies on.
const MinWeiDUVersion = 246

// Validate checks enumerated fields and the WeiDU version floor.
func (c *Configuration) Validate() error {
	switch c.Type {
	case TypeIEMod, TypeZip, TypeWindows, TypeLinux, TypeMacOS, TypeMulti:
	default:
		return &ConfigError{
			Type: ValidationError,
			Message: fmt.Sprintf("type must be one of iemod, zip, windows, linux, macos, multi; got %q",
				c.Type),
		}
	}

	switch c.Arch {
	case ArchAMD64, ArchX86, ArchX86Legacy:
	default:
		return &ConfigError{
			Type: ValidationError,
			Message: fmt.Sprintf("arch must be one of amd64, x86, x86-legacy; got %q",
				c.Arch),
		}
	}

	if c.WeiDU != WeiDULatest {
		v, err := ParseWeiDUVersion(c.WeiDU)
		if err != nil {
			return err
		}
		if v < MinWeiDUVersion {
			return &ConfigError{
				Type: ValidationError,
				Message: fmt.Sprintf("weidu version %d is below the supported floor %d",
					v, MinWeiDUVersion),
			}
		}
	}

	if c.Suffix == "" {
		return &ConfigError{Type: ValidationError, Message: "suffix cannot be empty"}
	}
	if c.Naming == "" {
		return &ConfigError{Type: ValidationError, Message: "naming cannot be empty"}
	}

	return nil
}

// ParseWeiDUVersion parses a numeric WeiDU version such as "246" or
// "247.00", returning its integer release number.
func ParseWeiDUVersion(s string) (int, error) {
	head, _, _ := strings.Cut(strings.TrimPrefix(s, "v"), ".")
	v, err := strconv.Atoi(head)
	if err != nil || v <= 0 {
		return 0, &ConfigError{
			Type:    ValidationError,
			Message: fmt.Sprintf("weidu must be %q or a release number, got %q", WeiDULatest, s),
		}
	}
	return v, nil
}
