package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyTokens overlays key=value argument tokens onto cfg. Tokens are
// processed in order, later tokens overriding earlier ones. A token without
// an equals sign, an unrecognized key, or an unparseable boolean is a hard
// error.
func ApplyTokens(cfg *Configuration, tokens []string) error {
	for _, token := range tokens {
		key, value, found := strings.Cut(token, "=")
		if !found {
			return &ConfigError{
				Type:    InvalidArgument,
				Message: fmt.Sprintf("%q is not a key=value token", token),
			}
		}

		if err := applyToken(cfg, key, value); err != nil {
			return err
		}
	}
	return nil
}

func applyToken(cfg *Configuration, key, value string) error {
	switch key {
	case "type":
		cfg.Type = PackageType(value)
	case "arch":
		cfg.Arch = Architecture(value)
	case "suffix":
		cfg.Suffix = value
	case "extra":
		cfg.Extra = value
	case "naming":
		cfg.Naming = value
	case "weidu":
		cfg.WeiDU = value
	case "prefix_win":
		cfg.PrefixWin = value
	case "prefix_lin":
		cfg.PrefixLin = value
	case "prefix_mac":
		cfg.PrefixMac = value
	case "tp2_name":
		cfg.Tp2Name = value
	case "name_fmt":
		cfg.NameFmt = value
	case "multi_autoupdate":
		return applyBool(&cfg.MultiAutoupdate, key, value)
	case "case_sensitive":
		return applyBool(&cfg.CaseSensitive, key, value)
	case "beautify":
		return applyBool(&cfg.Beautify, key, value)
	case "lower_case":
		return applyBool(&cfg.LowerCase, key, value)
	default:
		return &ConfigError{
			Type:    InvalidArgument,
			Message: fmt.Sprintf("unrecognized key %q", key),
		}
	}
	return nil
}

func applyBool(dst *bool, key, value string) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return &ConfigError{
			Type:    InvalidArgument,
			Message: fmt.Sprintf("%s must be a boolean, got %q", key, value),
		}
	}
	*dst = v
	return nil
}
