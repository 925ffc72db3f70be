// Package ssc reports which simulation engine version the exported tables
// were generated against.
package ssc

import (
	"os"
	"strings"

	"github.com/robert-at-pretension-io/export-config/internal/config"
)

// Unknown is reported when no version is configured.
const Unknown = "unknown"

// VersionSource supplies the simulation engine version.
type VersionSource interface {
	Version() string
}

// Static is a fixed version string.
type Static string

// Version returns s, or Unknown when s is blank.
func (s Static) Version() string {
	if v := strings.TrimSpace(string(s)); v != "" {
		return v
	}
	return Unknown
}

// FromConfig prefers the configured sscVersion, then SSC_VERSION.
func FromConfig(cfg *config.Config) VersionSource {
	if cfg != nil && strings.TrimSpace(cfg.SSCVersion) != "" {
		return Static(cfg.SSCVersion)
	}
	return Static(os.Getenv(config.EnvSSCVersion))
}
